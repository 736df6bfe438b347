package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// Service handles client onboarding. Registering a client provisions a
// dedicated wallet funded with the configured opening balance, so every
// client can receive a loan disbursement immediately.
type Service struct {
	repo           Repository
	wallets        wallet.Store
	openingBalance decimal.Decimal
}

// NewService constructs a client service.
func NewService(repo Repository, wallets wallet.Store, openingBalance decimal.Decimal) *Service {
	return &Service{repo: repo, wallets: wallets, openingBalance: openingBalance}
}

// CreateInput captures the data required to register a client.
type CreateInput struct {
	Name          string
	Email         string
	CIN           string
	Phone         string
	PostalAddress string
}

// Create registers a client and provisions their wallet.
func (s *Service) Create(ctx context.Context, in CreateInput) (Client, error) {
	if in.Name == "" || in.Email == "" || in.CIN == "" {
		return Client{}, errors.New("name, email and CIN are required")
	}

	id := uuid.NewString()
	c := Client{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		CIN:           strings.TrimSpace(in.CIN),
		Phone:         strings.TrimSpace(in.Phone),
		PostalAddress: strings.TrimSpace(in.PostalAddress),
		WalletAddress: walletAddress(id),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Client{}, err
	}

	err := s.wallets.Create(ctx, wallet.Wallet{
		ID:        uuid.NewString(),
		ClientID:  c.ID,
		Address:   c.WalletAddress,
		Balance:   s.openingBalance,
		Kind:      wallet.KindClient,
		CreatedAt: c.CreatedAt,
	})
	if err != nil {
		// The wallet is the useful half of onboarding; without it the
		// client record is an orphan, so undo it.
		_ = s.repo.Delete(ctx, c.ID)
		return Client{}, err
	}
	return c, nil
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	return s.repo.Get(ctx, id)
}

// List returns all clients, most recently registered first.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

// UpdateInput carries the editable client fields.
type UpdateInput struct {
	Name          string
	Email         string
	CIN           string
	Phone         string
	PostalAddress string
}

// Update edits a client's contact details. The wallet address is fixed
// at onboarding and never changes.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Client, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if in.Name != "" {
		c.Name = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.CIN != "" {
		c.CIN = strings.TrimSpace(in.CIN)
	}
	if in.Phone != "" {
		c.Phone = strings.TrimSpace(in.Phone)
	}
	if in.PostalAddress != "" {
		c.PostalAddress = strings.TrimSpace(in.PostalAddress)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// Delete removes a client record. The wallet and its transaction history
// stay, the ledger is append-only.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func walletAddress(id string) string {
	ref := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("KIVU_CLIENT_%s", ref)
}
