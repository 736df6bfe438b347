package client

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no client matches the lookup.
	ErrNotFound = errors.New("client not found")
	// ErrDuplicate is returned when the email or CIN is already registered.
	ErrDuplicate = errors.New("client already exists")
)

// Client is a micro-credit customer. The CIN is the national identity
// card number and is unique, like the email.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CIN           string    `json:"cin"`
	Phone         string    `json:"phone"`
	PostalAddress string    `json:"postal_address"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository abstracts client persistence.
type Repository interface {
	Create(ctx context.Context, c Client) error
	Get(ctx context.Context, id string) (Client, error)
	GetByEmail(ctx context.Context, email string) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id string) error
}
