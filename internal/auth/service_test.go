package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeUserStore struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newFakeUserStore(users ...*User) *fakeUserStore {
	s := &fakeUserStore{byID: map[string]*User{}, byEmail: map[string]*User{}}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, u *User) error {
	if u.ID == "" {
		u.ID = "user-" + u.Email
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrAlreadyExists
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
	return nil
}

func (s *fakeUserStore) Find(_ context.Context, id string) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdateStatus(_ context.Context, id, status string) error {
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func activeUser(t *testing.T, id, email, password, role string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &User{ID: id, Email: email, PasswordHash: hash, Role: role, Status: StatusActive}
}

func TestLoginAndAuthenticateToken(t *testing.T) {
	store := newFakeUserStore(activeUser(t, "user-1", "a@b.c", "secret-pass", RoleStandard))
	svc, err := NewService(store, "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, expiresAt, principal, err := svc.Login(context.Background(), "A@B.C", "secret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if principal.UserID != "user-1" || principal.Role != RoleStandard {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	resolved, err := svc.AuthenticateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("AuthenticateToken: %v", err)
	}
	if resolved.UserID != "user-1" {
		t.Fatalf("unexpected subject: %s", resolved.UserID)
	}
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	user := activeUser(t, "user-2", "p@b.c", "secret-pass", RoleStandard)
	user.Status = StatusPending
	svc, err := NewService(newFakeUserStore(user), "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "p@b.c", "secret-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, err := NewService(newFakeUserStore(activeUser(t, "user-3", "w@b.c", "secret-pass", RoleStandard)), "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "w@b.c", "nope-nope-nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticateTokenRejectsDisabledAccount(t *testing.T) {
	user := activeUser(t, "user-4", "d@b.c", "secret-pass", RoleStandard)
	store := newFakeUserStore(user)
	svc, err := NewService(store, "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	token, _, _, err := svc.Login(context.Background(), "d@b.c", "secret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := store.UpdateStatus(context.Background(), "user-4", StatusDisabled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := svc.AuthenticateToken(context.Background(), token); err == nil {
		t.Fatal("expected authentication failure for disabled account")
	}
}

func TestParseAndValidateRejectsExpired(t *testing.T) {
	current := time.Now().UTC()
	svc, err := NewService(newFakeUserStore(), "test-secret", "lexora", WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	token, _, err := svc.GenerateToken("user-5", RoleStandard, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ParseAndValidate(token); err != nil {
		t.Fatalf("fresh token should validate: %v", err)
	}
	current = current.Add(time.Minute + time.Second)
	if _, err := svc.ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestParseAndValidateRejectsTampering(t *testing.T) {
	svc, err := NewService(newFakeUserStore(), "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	token, _, err := svc.GenerateToken("user-6", RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", token)
	}
	forged := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := svc.ParseAndValidate(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged payload, got %v", err)
	}
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	store := newFakeUserStore()
	svc, err := NewService(store, "test-secret", "lexora")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	user, err := svc.Register(context.Background(), " New@User.Org ", "New User", "long-enough")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Status != StatusPending || user.Role != RoleStandard {
		t.Fatalf("unexpected new account: %+v", user)
	}
	if user.Email != "new@user.org" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if _, err := svc.Register(context.Background(), "new@user.org", "Dup", "long-enough"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(newFakeUserStore(), "  ", "lexora"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	principal := Principal{UserID: "user-7", Role: RoleAdmin, Status: StatusActive}
	ctx = ContextWithPrincipal(ctx, principal)
	got, ok := PrincipalFromContext(ctx)
	if !ok || got != principal {
		t.Fatalf("unexpected principal: %+v ok=%v", got, ok)
	}
	if !got.IsAdmin() || !got.Active() {
		t.Fatalf("expected active admin, got %+v", got)
	}
	ctx = ContextWithToken(ctx, "raw-token")
	token, ok := TokenFromContext(ctx)
	if !ok || token != "raw-token" {
		t.Fatalf("unexpected token: %q ok=%v", token, ok)
	}
}
