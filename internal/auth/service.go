package auth

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/findone/findone-backend/config"
	"github.com/findone/findone-backend/utils"
)

const codeTTL = 10 * time.Minute

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrUserNotFound       = errors.New("user not found")
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CodeStore keeps short-lived verification and recovery codes. The redis
// implementation is used in production; tests swap in an in-memory map.
type CodeStore interface {
	Set(key, code string, ttl time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
}

type redisCodeStore struct{}

func (redisCodeStore) Set(key, code string, ttl time.Duration) error { return utils.SetToken(key, code, ttl) }
func (redisCodeStore) Get(key string) (string, error)                { return utils.GetToken(key) }
func (redisCodeStore) Delete(key string) error                       { return utils.DeleteToken(key) }

// NewRedisCodeStore returns the production CodeStore backed by utils redis.
func NewRedisCodeStore() CodeStore { return redisCodeStore{} }

// CodeSender delivers a code to an address. Implemented by the SMTP channel;
// a nil-configured sender puts the service in demo mode.
type CodeSender interface {
	SendVerification(to, code string) error
	SendRecovery(to, code string) error
	Configured() bool
}

type smtpCodeSender struct{}

func (smtpCodeSender) SendVerification(to, code string) error { return utils.SendVerificationCode(to, code) }
func (smtpCodeSender) SendRecovery(to, code string) error     { return utils.SendRecoveryCode(to, code) }
func (smtpCodeSender) Configured() bool                       { return utils.EmailConfigured() }

// NewSMTPCodeSender returns the production CodeSender backed by utils SMTP.
func NewSMTPCodeSender() CodeSender { return smtpCodeSender{} }

type Service interface {
	Register(input RegisterInput) (*CodeDelivery, error)
	VerifyEmail(email, code string) error
	ResendVerification(email string) (*CodeDelivery, error)
	Login(input LoginInput) (*TokenPair, *User, error)
	Refresh(refreshToken string) (string, error)
	RequestPasswordRecovery(email string) (*CodeDelivery, error)
	ResetPassword(email, code, newPassword string) error
	ChangePassword(userID uint, currentPassword, newPassword string) error
	GetUserByID(userID uint) (User, error)
	GetUserByEmail(email string) (*User, error)
	Logout() error
}

type service struct {
	repo          Repository
	codes         CodeStore
	sender        CodeSender
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(r Repository, codes CodeStore, sender CodeSender, cfg *config.Config) Service {
	return &service{
		repo:          r,
		codes:         codes,
		sender:        sender,
		accessSecret:  cfg.JWTAccessSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     time.Duration(cfg.JWTAccessTTLHours) * time.Hour,
		refreshTTL:    time.Duration(cfg.JWTRefreshTTLHours) * time.Hour,
	}
}

// =============================
// Register
// =============================

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	BirthDate string
	Gender    string
	Bio       string
	Avatar    string
	Location  string
	Interests []string
}

// CodeDelivery reports how a verification code was delivered. DemoCode is
// only set when no email provider is configured, mirroring the original
// app's demo fallback of returning the code directly.
type CodeDelivery struct {
	Sent     bool
	DemoCode string
}

func (s *service) Register(in RegisterInput) (*CodeDelivery, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	taken, err := s.repo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var birthDate *time.Time
	if in.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", in.BirthDate)
		if err != nil {
			return nil, errors.New("invalid birth_date format. Use YYYY-MM-DD")
		}
		birthDate = &parsed
	}

	interests, err := json.Marshal(in.Interests)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		BirthDate:    birthDate,
		Gender:       in.Gender,
		Bio:          in.Bio,
		Avatar:       in.Avatar,
		Location:     in.Location,
		Interests:    interests,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	return s.issueCode(email, verifyKey(email), s.sender.SendVerification)
}

func (s *service) VerifyEmail(email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.codes.Get(verifyKey(email))
	if err != nil || stored != code {
		return ErrInvalidCode
	}
	if err := s.repo.MarkVerified(email); err != nil {
		return err
	}
	_ = s.codes.Delete(verifyKey(email))
	return nil
}

func (s *service) ResendVerification(email string) (*CodeDelivery, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.IsVerified {
		return nil, errors.New("account already verified")
	}
	return s.issueCode(email, verifyKey(email), s.sender.SendVerification)
}

// =============================
// Login / tokens
// =============================

type LoginInput struct {
	Email    string
	Password string
}

func (s *service) Login(in LoginInput) (*TokenPair, *User, error) {
	user, err := s.repo.FindByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, nil, err
	}
	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

func (s *service) generateAccessToken(user *User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.accessSecret))
}

func (s *service) generateRefreshToken(user *User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(s.refreshTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.refreshSecret))
}

func (s *service) Refresh(refreshToken string) (string, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.refreshSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return "", errors.New("invalid token claims")
	}

	userID := uint(claims["user_id"].(float64))
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return "", ErrUserNotFound
	}

	return s.generateAccessToken(&user)
}

// =============================
// Password recovery
// =============================

func (s *service) RequestPasswordRecovery(email string) (*CodeDelivery, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.FindByEmail(email); err != nil {
		return nil, ErrUserNotFound
	}
	return s.issueCode(email, recoveryKey(email), s.sender.SendRecovery)
}

func (s *service) ResetPassword(email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.codes.Get(recoveryKey(email))
	if err != nil || stored != code {
		return ErrInvalidCode
	}

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(user.ID, string(hash)); err != nil {
		return err
	}

	_ = s.codes.Delete(recoveryKey(email))
	return nil
}

func (s *service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(userID, string(hash))
}

// =============================
// Lookups
// =============================

func (s *service) GetUserByID(userID uint) (User, error) {
	return s.repo.FindByID(userID)
}

func (s *service) GetUserByEmail(email string) (*User, error) {
	return s.repo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
}

func (s *service) Logout() error {
	// JWT is stateless, clients just drop the token
	return nil
}

// =============================
// Helpers
// =============================

func (s *service) issueCode(email, key string, send func(to, code string) error) (*CodeDelivery, error) {
	code := generateCode()
	if err := s.codes.Set(key, code, codeTTL); err != nil {
		return nil, err
	}

	if !s.sender.Configured() {
		return &CodeDelivery{Sent: false, DemoCode: code}, nil
	}
	if err := send(email, code); err != nil {
		// degrade to demo mode rather than failing the whole operation
		return &CodeDelivery{Sent: false, DemoCode: code}, nil
	}
	return &CodeDelivery{Sent: true}, nil
}

// generateCode returns a 6-digit numeric code.
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%d", n.Int64()+100000)
}

func verifyKey(email string) string   { return "verify_code:" + email }
func recoveryKey(email string) string { return "recovery_code:" + email }
