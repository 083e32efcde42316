package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	domainauth "staybook/internal/domain/auth"
	domainuser "staybook/internal/domain/user"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
)

func newService() *Service {
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:      " Host@Example.COM ",
		Password:   "correct-horse",
		WantToHost: true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Token == "" {
		t.Fatal("register must issue a session token")
	}
	if registered.User.Email != "host@example.com" {
		t.Fatalf("email not normalized: %q", registered.User.Email)
	}
	if !registered.User.HasRole(domainuser.RoleHost) || !registered.User.HasRole(domainuser.RoleGuest) {
		t.Fatalf("roles = %v, want guest and host", registered.User.Roles)
	}

	if _, err := svc.Register(ctx, RegisterParams{Email: "host@example.com", Password: "another-pass"}); !errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
		t.Fatalf("duplicate email: want ErrEmailAlreadyUsed, got %v", err)
	}

	logged, err := svc.Login(ctx, LoginParams{Email: "host@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.Token == registered.Token {
		t.Fatal("login must issue a fresh token")
	}

	if _, err := svc.Login(ctx, LoginParams{Email: "host@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginParams{Email: "ghost@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsShortPasswords(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("want ErrPasswordTooShort, got %v", err)
	}
}

func TestResolveTokenAndLogout(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "guest@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resolved, err := svc.ResolveToken(ctx, registered.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.User.ID != registered.User.ID {
		t.Fatalf("resolved user %s, want %s", resolved.User.ID, registered.User.ID)
	}

	if err := svc.Logout(ctx, registered.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, registered.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("resolve after logout: want ErrSessionNotFound, got %v", err)
	}
}

func TestExpiredSessionsAreRejectedAndSwept(t *testing.T) {
	svc := newService()
	svc.SessionTTL = time.Millisecond
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "guest@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := svc.ResolveToken(ctx, registered.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("expired resolve: want ErrSessionNotFound, got %v", err)
	}

	// Seed a second expired session and sweep.
	again, err := svc.Login(ctx, LoginParams{Email: "guest@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	removed, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed < 1 {
		t.Fatalf("sweep removed %d, want at least 1", removed)
	}
	if _, err := svc.ResolveToken(ctx, again.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("resolve after sweep: want ErrSessionNotFound, got %v", err)
	}
}
