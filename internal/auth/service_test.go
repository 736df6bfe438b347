package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/config"
	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

func newFixture(t *testing.T, accessTTL time.Duration) (*Service, identity.User) {
	t.Helper()
	cfg := config.Config{
		AppName:         "KivuMC",
		JWTSecret:       "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	}

	users := identity.NewMemoryRepository()
	idSvc := identity.NewService(users, wallet.NewInMemory(), decimal.Zero)
	u, err := idSvc.Register(context.Background(), identity.RegisterInput{
		Name:     "Didier Mwamba",
		Email:    "didier@example.com",
		Password: "s3cret-pass",
		Role:     identity.RoleChefOperation,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewService(cfg, users), u
}

func TestLoginAndVerify(t *testing.T) {
	svc, u := newFixture(t, 15*time.Minute)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("sub = %s, want %s", claims.Subject, u.ID)
	}
	if claims.Role != string(identity.RoleChefOperation) {
		t.Fatalf("role = %s", claims.Role)
	}
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	svc, u := newFixture(t, 15*time.Minute)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc, u := newFixture(t, -time.Minute)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, u := newFixture(t, 15*time.Minute)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := svc.VerifyAccess(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("sub = %s, want %s", claims.Subject, u.ID)
	}

	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted for refresh: %v", err)
	}
}
