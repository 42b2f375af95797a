package repository

import (
	"context"
	"sync"

	authdomain "mail-assistant/internal/auth/domain"
)

type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]authdomain.UserToken
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]authdomain.UserToken)}
}

func (r *MemoryTokenRepository) Save(_ context.Context, token *authdomain.UserToken) error {
	r.mu.Lock()
	r.tokens[token.UserID] = *token
	r.mu.Unlock()
	return nil
}

func (r *MemoryTokenRepository) FindByUserID(_ context.Context, userID string) (*authdomain.UserToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[userID]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (r *MemoryTokenRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.tokens, userID)
	r.mu.Unlock()
	return nil
}
