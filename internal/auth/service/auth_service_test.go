package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	membershipdomain "foodbridge/backend/internal/membership/domain"
	orgdomain "foodbridge/backend/internal/organization/domain"
	"foodbridge/backend/internal/security"
	sessiondomain "foodbridge/backend/internal/session/domain"
	userdomain "foodbridge/backend/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*userdomain.User{}, byEmail: map[string]*userdomain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		t := time.Now()
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) RevokeAllSessionsByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := time.Now()
	for _, s := range r.m {
		if s.UserID == userID {
			s.RevokedAt = &t
		}
	}
	return nil
}

func (r *memSessionRepo) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[sessionID]; ok {
		s.RefreshJti = jti
		s.RefreshTokenHash = refreshTokenHash
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}

type memMembershipRepo struct {
	mu sync.Mutex
	m  map[string]*membershipdomain.Membership // keyed by user id
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{m: map[string]*membershipdomain.Membership{}}
}

func (r *memMembershipRepo) GetMembershipByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[userID], nil
}

type memOrgRepo struct {
	mu sync.Mutex
	m  map[string]*orgdomain.Org
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{m: map[string]*orgdomain.Org{}}
}

func (r *memOrgRepo) GetByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func newTestService(t *testing.T) (*AuthService, *memUserRepo, *memSessionRepo, *memMembershipRepo, *memOrgRepo) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	memberships := newMemMembershipRepo()
	orgs := newMemOrgRepo()
	svc := NewAuthService(users, sessions, memberships, orgs, security.NewHasher(4), tokens, time.Hour)
	return svc, users, sessions, memberships, orgs
}

func TestRegister_Success(t *testing.T) {
	svc, users, _, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "password123", " Alice ", "Smith")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.FirstName != "Alice" {
		t.Errorf("first_name = %q, want trimmed", user.FirstName)
	}
	if user.ID == "" {
		t.Error("user ID should be set")
	}
	stored, _ := users.GetByEmail(ctx, "alice@example.com")
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "password123" {
		t.Error("password should be stored hashed")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "password123", "Bob", ""); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, "bob@example.com", "otherpassword", "Bob", "")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "password123", "", ""); err == nil {
		t.Error("expected error for malformed email")
	}
	if _, err := svc.Register(ctx, "", "password123", "", ""); err == nil {
		t.Error("expected error for empty email")
	}
	if _, err := svc.Register(ctx, "carol@example.com", "short", "", ""); err == nil {
		t.Error("expected error for short password")
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, sessions, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dana@example.com", "password123", "Dana", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := svc.Login(ctx, "dana@example.com", "password123", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Error("expected both tokens")
	}
	if res.Email != "dana@example.com" {
		t.Errorf("email = %q", res.Email)
	}
	if len(sessions.m) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions.m))
	}
	for _, s := range sessions.m {
		if s.UserID != res.UserID {
			t.Errorf("session user_id = %q, want %q", s.UserID, res.UserID)
		}
		if s.RefreshTokenHash == "" {
			t.Error("session should store the refresh token hash")
		}
	}
}

func TestLogin_BadPassword(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(ctx, "erin@example.com", "wrongpassword", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	_, err = svc.Login(ctx, "nobody@example.com", "password123", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	svc, users, _, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "frank@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users.byID[user.ID].Status = userdomain.UserStatusDisabled

	if _, err := svc.Login(ctx, "frank@example.com", "password123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "gail@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "gail@example.com", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	first, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if first.RefreshToken == login.RefreshToken {
		t.Error("refresh token should rotate")
	}

	// The rotated token keeps working.
	if _, err := svc.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	svc, _, sessions, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "hank@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "hank@example.com", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Replaying the pre-rotation token is reuse.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	if !errors.Is(err, ErrRefreshTokenReuse) {
		t.Fatalf("err = %v, want ErrRefreshTokenReuse", err)
	}
	for _, s := range sessions.m {
		if s.UserID == login.UserID && s.RevokedAt == nil {
			t.Error("all of the user's sessions should be revoked after reuse")
		}
	}
}

func TestRefresh_RevokedSession(t *testing.T) {
	svc, _, sessions, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "iris@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "iris@example.com", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	for id := range sessions.m {
		_ = sessions.Revoke(ctx, id)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogout_ByRefreshToken(t *testing.T) {
	svc, _, sessions, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "jane@example.com", "password123", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "jane@example.com", "password123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, login.RefreshToken, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, s := range sessions.m {
		if s.RevokedAt == nil {
			t.Error("session should be revoked after logout")
		}
	}
	// Garbage tokens are a silent no-op.
	if err := svc.Logout(ctx, "not-a-token", ""); err != nil {
		t.Fatalf("Logout with bad token: %v", err)
	}
}

func TestInfo_WithAndWithoutOrg(t *testing.T) {
	svc, _, _, memberships, orgs := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "kate@example.com", "password123", "Kate", "Lee")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Info(ctx, user.ID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if res.Org != nil || res.IsAdmin {
		t.Error("unaffiliated user should have nil org and is_admin false")
	}

	orgs.m["org-1"] = &orgdomain.Org{ID: "org-1", Name: "Shelter", Status: orgdomain.OrgStatusActive}
	memberships.m[user.ID] = &membershipdomain.Membership{
		ID: "m-1", UserID: user.ID, OrgID: "org-1", Role: membershipdomain.RoleAdmin,
	}

	res, err = svc.Info(ctx, user.ID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if res.Org == nil || res.Org.ID != "org-1" {
		t.Fatalf("org = %+v, want org-1", res.Org)
	}
	if !res.IsAdmin {
		t.Error("is_admin should be true for admin membership")
	}
}

func TestInfo_UnknownUser(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if _, err := svc.Info(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
