package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/findone/findone-backend/config"
)

type memoryCodeStore struct {
	codes map[string]string
}

func newMemoryCodeStore() *memoryCodeStore {
	return &memoryCodeStore{codes: map[string]string{}}
}

func (m *memoryCodeStore) Set(key, code string, _ time.Duration) error {
	m.codes[key] = code
	return nil
}

func (m *memoryCodeStore) Get(key string) (string, error) {
	code, ok := m.codes[key]
	if !ok {
		return "", errors.New("missing")
	}
	return code, nil
}

func (m *memoryCodeStore) Delete(key string) error {
	delete(m.codes, key)
	return nil
}

type stubSender struct {
	configured bool
	sent       []string
	fail       bool
}

func (s *stubSender) SendVerification(to, code string) error { return s.record(to) }
func (s *stubSender) SendRecovery(to, code string) error     { return s.record(to) }
func (s *stubSender) Configured() bool                       { return s.configured }

func (s *stubSender) record(to string) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, to)
	return nil
}

func newTestService(t *testing.T, sender *stubSender) (Service, *memoryCodeStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	codes := newMemoryCodeStore()
	cfg := &config.Config{
		JWTAccessSecret:    "access-secret",
		JWTRefreshSecret:   "refresh-secret",
		JWTAccessTTLHours:  1,
		JWTRefreshTTLHours: 24,
	}
	return NewService(NewRepository(db), codes, sender, cfg), codes
}

func register(t *testing.T, svc Service) *CodeDelivery {
	t.Helper()
	delivery, err := svc.Register(RegisterInput{
		Email:     "Ana@Example.com",
		Password:  "secret123",
		FirstName: "Ana",
		LastName:  "García",
		Interests: []string{"Pádel", "Cine"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return delivery
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: true})
	register(t, svc)

	_, err := svc.Register(RegisterInput{Email: "ana@example.com", Password: "other"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterDemoModeReturnsCode(t *testing.T) {
	svc, codes := newTestService(t, &stubSender{configured: false})

	delivery := register(t, svc)
	if delivery.Sent {
		t.Fatal("expected demo delivery")
	}
	if len(delivery.DemoCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", delivery.DemoCode)
	}
	if codes.codes["verify_code:ana@example.com"] != delivery.DemoCode {
		t.Fatal("stored code does not match the demo code")
	}
}

func TestRegisterDegradesOnSendFailure(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: true, fail: true})

	delivery := register(t, svc)
	if delivery.Sent || delivery.DemoCode == "" {
		t.Fatalf("expected demo fallback, got %+v", delivery)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: false})
	delivery := register(t, svc)

	if err := svc.VerifyEmail("ana@example.com", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if err := svc.VerifyEmail("ana@example.com", delivery.DemoCode); err != nil {
		t.Fatalf("verify: %v", err)
	}

	user, err := svc.GetUserByEmail("ana@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !user.IsVerified {
		t.Fatal("expected verified account")
	}

	// The code is single-use.
	if err := svc.VerifyEmail("ana@example.com", delivery.DemoCode); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on reuse, got %v", err)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: false})
	register(t, svc)

	if _, _, err := svc.Login(LoginInput{Email: "ana@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(LoginInput{Email: "ghost@example.com", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	pair, user, err := svc.Login(LoginInput{Email: "ANA@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if user.FullName() != "Ana García" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Initials() != "AG" {
		t.Fatalf("initials = %q", user.Initials())
	}

	access, err := svc.Refresh(pair.RefreshToken)
	if err != nil || access == "" {
		t.Fatalf("refresh: %q, %v", access, err)
	}
	if _, err := svc.Refresh(pair.AccessToken); err == nil {
		t.Fatal("access token must not work as refresh token")
	}
}

func TestPasswordRecovery(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: false})
	register(t, svc)

	if _, err := svc.RequestPasswordRecovery("ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	delivery, err := svc.RequestPasswordRecovery("ana@example.com")
	if err != nil {
		t.Fatalf("request recovery: %v", err)
	}

	if err := svc.ResetPassword("ana@example.com", "999999", "newpass123"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if err := svc.ResetPassword("ana@example.com", delivery.DemoCode, "newpass123"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := svc.Login(LoginInput{Email: "ana@example.com", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted")
	}
	if _, _, err := svc.Login(LoginInput{Email: "ana@example.com", Password: "newpass123"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t, &stubSender{configured: false})
	register(t, svc)
	_, user, err := svc.Login(LoginInput{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong", "next"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "secret123", "next12345"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, _, err := svc.Login(LoginInput{Email: "ana@example.com", Password: "next12345"}); err != nil {
		t.Fatalf("login after change: %v", err)
	}
}
