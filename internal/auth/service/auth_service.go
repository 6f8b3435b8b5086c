package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	membershipdomain "foodbridge/backend/internal/membership/domain"
	orgdomain "foodbridge/backend/internal/organization/domain"
	"foodbridge/backend/internal/security"
	sessiondomain "foodbridge/backend/internal/session/domain"
	userdomain "foodbridge/backend/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("a user with this email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrUserNotFound           = errors.New("user not found")
)

// AuthResult holds the outcome of Login or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Email        string
}

// InfoResult is the caller's account view: the user, the org they belong
// to (nil when unaffiliated), and whether they administer it.
type InfoResult struct {
	User    *userdomain.User
	Org     *orgdomain.Org
	IsAdmin bool
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllSessionsByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// MembershipRepo is the minimal membership repository needed by the auth service.
type MembershipRepo interface {
	GetMembershipByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
}

// OrgRepo is the minimal organization repository needed by the auth service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// AuthService implements register, login, refresh, logout, and account info.
type AuthService struct {
	userRepo       UserRepo
	sessionRepo    SessionRepo
	membershipRepo MembershipRepo
	orgRepo        OrgRepo
	hasher         *security.Hasher
	tokens         *security.TokenProvider
	refreshTTL     time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	membershipRepo MembershipRepo,
	orgRepo OrgRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		membershipRepo: membershipRepo,
		orgRepo:        orgRepo,
		hasher:         hasher,
		tokens:         tokens,
		refreshTTL:     refreshTTL,
	}
}

// Register creates a user with the given email and password. First and last
// name are optional. Returns the created user.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates with email/password, creates a session, and returns tokens.
// The error never says which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	sessionID := uuid.New().String()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		ExpiresAt:        now.Add(s.refreshTTL),
		IPAddress:        ip,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		Email:        user.Email,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// A stale jti means the token was already rotated once: treat it as theft
// and revoke every session the user has.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		_ = s.sessionRepo.RevokeAllSessionsByUser(ctx, userID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	now := time.Now().UTC()
	_ = s.sessionRepo.UpdateLastSeen(ctx, sessionID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateRefreshToken(ctx, sessionID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
	}, nil
}

// Logout revokes the session. If refreshToken is non-empty it identifies the
// session; otherwise sessionID from the access token is used. Unknown or
// already-invalid tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken, sessionID string) error {
	if refreshToken != "" {
		sid, _, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessionRepo.Revoke(ctx, sid)
	}
	if sessionID == "" {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, sessionID)
}

// Info returns the user's account view: the user record, the org they belong
// to (nil when unaffiliated), and whether their role is admin.
func (s *AuthService) Info(ctx context.Context, userID string) (*InfoResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	out := &InfoResult{User: user}
	membership, err := s.membershipRepo.GetMembershipByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return out, nil
	}
	org, err := s.orgRepo.GetByID(ctx, membership.OrgID)
	if err != nil {
		return nil, err
	}
	out.Org = org
	out.IsAdmin = membership.Role == membershipdomain.RoleAdmin
	return out, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
