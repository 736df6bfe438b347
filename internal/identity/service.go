package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// ErrInvalidCredentials is returned when the email/password pair does not
// match a user. The same error covers both unknown email and wrong
// password so the login endpoint leaks nothing.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages staff accounts. Registering a user provisions a staff
// wallet; operational roles get a float to work with, admin does not.
type Service struct {
	repo           Repository
	wallets        wallet.Store
	openingBalance decimal.Decimal
}

// NewService creates a new identity service.
func NewService(repo Repository, wallets wallet.Store, openingBalance decimal.Decimal) *Service {
	return &Service{repo: repo, wallets: wallets, openingBalance: openingBalance}
}

// RegisterInput captures the data required to open a staff account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Phone    string
}

// Register creates a staff user with a hashed password and a wallet.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if in.Name == "" || in.Email == "" {
		return User{}, errors.New("name and email are required")
	}
	if len(in.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	if _, ok := ParseRole(string(in.Role)); !ok {
		return User{}, fmt.Errorf("unknown role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	id := uuid.NewString()
	u := User{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  hash,
		Role:          in.Role,
		Phone:         strings.TrimSpace(in.Phone),
		WalletAddress: walletAddress(in.Role, id),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	opening := decimal.Zero
	if u.Role != RoleAdmin {
		opening = s.openingBalance
	}
	if err := s.wallets.Create(ctx, wallet.Wallet{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Address:   u.WalletAddress,
		Balance:   opening,
		Kind:      wallet.KindUser,
		CreatedAt: u.CreatedAt,
	}); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate verifies an email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateInput carries the editable staff account fields. Empty fields are
// left unchanged.
type UpdateInput struct {
	Name  string
	Email string
	Role  Role
	Phone string
}

// Update edits a staff account. The wallet address keeps its original role
// prefix; balances and history are untouched.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Name != "" {
		u.Name = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Role != "" {
		if _, ok := ParseRole(string(in.Role)); !ok {
			return User{}, fmt.Errorf("unknown role %q", in.Role)
		}
		u.Role = in.Role
	}
	if in.Phone != "" {
		u.Phone = strings.TrimSpace(in.Phone)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all staff users, most recently registered first.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func walletAddress(role Role, id string) string {
	ref := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("KIVU_%s_%s", strings.ToUpper(string(role)), ref)
}
