package service

import (
	"context"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/notifier"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
	tokens map[int64]string // mirrors mockTokenRepo for Delete

	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: map[int64]*domain.User{}, tokens: map[int64]string{}}
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	c := *u
	c.ID = m.nextID
	m.nextID++
	c.Name = domain.FullName(c.FirstName, c.LastName)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *mockUserRepo) PhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) SetOTP(_ context.Context, userID int64, otpHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return apperr.E(apperr.NotFound, "user not found")
	}
	u.OTPHash = &otpHash
	u.OTPExpiresAt = &expiresAt
	return nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return apperr.E(apperr.NotFound, "user not found")
	}
	u.IsEmailVerified = true
	u.OTPHash = nil
	u.OTPExpiresAt = nil
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil, apperr.E(apperr.NotFound, "user not found")
	}
	delete(m.users, id)
	var keys []string
	if k, ok := m.tokens[id]; ok {
		keys = append(keys, k)
		delete(m.tokens, id)
	}
	return keys, nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type mockTokenRepo struct {
	mu     sync.Mutex
	byUser map[int64]string
	users  *mockUserRepo
}

func newMockTokenRepo(users *mockUserRepo) *mockTokenRepo {
	return &mockTokenRepo{byUser: map[int64]string{}, users: users}
}

func (m *mockTokenRepo) GetOrCreate(_ context.Context, userID int64, candidate string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.byUser[userID]; ok {
		return k, nil
	}
	m.byUser[userID] = candidate
	if m.users != nil {
		m.users.mu.Lock()
		m.users.tokens[userID] = candidate
		m.users.mu.Unlock()
	}
	return candidate, nil
}

func (m *mockTokenRepo) DeleteByKey(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, k := range m.byUser {
		if k == key {
			delete(m.byUser, id)
			return true, nil
		}
	}
	return false, nil
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
	err  error
}

func (c *captureNotifier) Send(_ context.Context, msg notifier.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func (c *captureNotifier) last() notifier.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return notifier.Message{}
	}
	return c.sent[len(c.sent)-1]
}

type mockCache struct {
	invalidated []string
}

func (m *mockCache) Invalidate(_ context.Context, token string) error {
	m.invalidated = append(m.invalidated, token)
	return nil
}

// ---------- Fixtures ----------

var fastArgon = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type fixture struct {
	users    *mockUserRepo
	tokens   *mockTokenRepo
	notifier *captureNotifier
	cache    *mockCache
	otp      *otpService
	auth     *authService
	clock    time.Time
	codes    []string
}

func newFixture() *fixture {
	f := &fixture{
		notifier: &captureNotifier{},
		cache:    &mockCache{},
		clock:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.users = newMockUserRepo()
	f.tokens = newMockTokenRepo(f.users)

	f.otp = NewOTPService(f.users, f.notifier, 5*time.Minute).(*otpService)
	f.otp.cost = bcrypt.MinCost
	f.otp.now = func() time.Time { return f.clock }
	f.otp.generate = func() (string, error) {
		if len(f.codes) == 0 {
			return "111111", nil
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}

	f.auth = NewAuthService(f.users, f.tokens, f.otp, f.cache).(*authService)
	f.auth.hashParams = fastArgon
	return f
}

func registerRequest(email, phone string) *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Email:     email,
		Password:  "Secret#123",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Age:       30,
		Gender:    domain.GenderFemale,
		Phone:     phone,
	}
}
