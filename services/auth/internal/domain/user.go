package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/cinelist/pkg/validate"
)

type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Name            string     `json:"name"`
	Age             int        `json:"age"`
	Gender          string     `json:"gender"`
	Address         string     `json:"address"`
	Phone           string     `json:"phone"`
	IsEmailVerified bool       `json:"is_email_verified"`
	IsStaff         bool       `json:"is_staff"`
	OTPHash         *string    `json:"-"`
	OTPExpiresAt    *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UserInfo is the public view of a user.
type UserInfo struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Name            string `json:"name"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	IsEmailVerified bool   `json:"is_email_verified"`
	IsStaff         bool   `json:"is_staff,omitempty"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Name:            u.Name,
		Age:             u.Age,
		Gender:          u.Gender,
		Address:         u.Address,
		Phone:           u.Phone,
		IsEmailVerified: u.IsEmailVerified,
		IsStaff:         u.IsStaff,
	}
}

// FullName is the derived display name stored in users.name.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOthers = "others"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Gender = strings.ToLower(strings.TrimSpace(r.Gender))
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Gender == "" {
		r.Gender = GenderOthers
	}
}

func (r *RegisterRequest) Validate() error {
	return validate.First(
		validate.Email(r.Email),
		validate.Password(r.Password),
		validate.Required("first_name", r.FirstName),
		validate.MaxLen("first_name", r.FirstName, 150),
		validate.MaxLen("last_name", r.LastName, 150),
		validate.IntRange("age", r.Age, 0, 150),
		validate.OneOf("gender", r.Gender, GenderMale, GenderFemale, GenderOthers),
		validate.MaxLen("address", r.Address, 255),
		validate.Phone(r.Phone),
	)
}

// NewUser builds the row to insert for a validated request.
func (r *RegisterRequest) NewUser(passwordHash string) *User {
	return &User{
		Email:        r.Email,
		PasswordHash: passwordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Name:         FullName(r.FirstName, r.LastName),
		Age:          r.Age,
		Gender:       r.Gender,
		Address:      r.Address,
		Phone:        r.Phone,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	return validate.First(
		validate.Email(r.Email),
		validate.Required("password", r.Password),
	)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type VerifyRequest struct {
	Email string  `json:"email"`
	OTP   OTPCode `json:"otp"`
}

func (r *VerifyRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.OTP = OTPCode(strings.TrimSpace(string(r.OTP)))
}

func (r *VerifyRequest) Validate() error {
	return validate.First(
		validate.Email(r.Email),
		validate.OTP(string(r.OTP)),
	)
}

// OTPCode accepts the code as a JSON string or a JSON integer.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OTPCode(s)
		return nil
	}

	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("otp must be a string or an integer: %w", err)
	}
	*c = OTPCode(strconv.FormatUint(n, 10))
	return nil
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

func (r *ResendOTPRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ResendOTPRequest) Validate() error {
	return validate.Email(r.Email)
}
