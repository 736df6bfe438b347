package client

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewInMemory returns a thread-safe in-memory client repository.
func NewInMemory() Repository {
	return &inMemoryRepository{clients: make(map[string]Client)}
}

func (r *inMemoryRepository) Create(ctx context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.clients {
		if strings.EqualFold(existing.Email, c.Email) || existing.CIN == c.CIN {
			return ErrDuplicate
		}
	}
	r.clients[c.ID] = c
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (r *inMemoryRepository) GetByEmail(ctx context.Context, email string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return Client{}, ErrNotFound
}

func (r *inMemoryRepository) List(ctx context.Context) ([]Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *inMemoryRepository) Update(ctx context.Context, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.clients {
		if id == c.ID {
			continue
		}
		if strings.EqualFold(existing.Email, c.Email) || existing.CIN == c.CIN {
			return ErrDuplicate
		}
	}
	r.clients[c.ID] = c
	return nil
}

func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)
	return nil
}
