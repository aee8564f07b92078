package validate

import (
	"testing"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/stretchr/testify/assert"
)

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "Secret#123", false},
		{"too short", "Se#1", true},
		{"no upper", "secret#123", true},
		{"no lower", "SECRET#123", true},
		{"no digit", "Secret#abc", true},
		{"no symbol", "Secret1234", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.value)
			if tt.wantErr {
				assert.True(t, apperr.IsKind(err, apperr.Validation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	assert.NoError(t, Phone("1234567890"))
	assert.Error(t, Phone("123456789"))
	assert.Error(t, Phone("12345678901"))
	assert.Error(t, Phone("12345abcde"))
	assert.Error(t, Phone(""))
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("a@x.com"))
	assert.Error(t, Email("a@x"))
	assert.Error(t, Email(""))
}

func TestOTP(t *testing.T) {
	assert.NoError(t, OTP("123456"))
	assert.Error(t, OTP("12345"))
	assert.Error(t, OTP("12345a"))
}

func TestOneOfAndRanges(t *testing.T) {
	assert.NoError(t, OneOf("gender", "others", "male", "female", "others"))
	assert.Error(t, OneOf("gender", "unknown", "male", "female", "others"))

	assert.NoError(t, FloatRange("rating", 10, 1, 10))
	assert.Error(t, FloatRange("rating", 0.5, 1, 10))
	assert.Error(t, IntRange("age", -1, 0, 150))
}

func TestURL(t *testing.T) {
	assert.NoError(t, URL("url", "https://www.netflix.com"))
	assert.Error(t, URL("url", "netflix"))
}

func TestFirst(t *testing.T) {
	assert.NoError(t, First(nil, nil))
	err := First(nil, Required("title", ""), Required("x", ""))
	assert.EqualError(t, err, "title is required")
}
