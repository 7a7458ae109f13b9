package transport

import (
	"context"
	"errors"
	"time"

	"pamazon/internal/domain"
	"pamazon/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	token.CreatedAt = time.Now()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindActive(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	switch {
	case !exists:
		return nil, repository.ErrRefreshTokenNotFound
	case refreshToken.Revoked:
		return nil, repository.ErrRefreshTokenRevoked
	case !time.Now().Before(refreshToken.ExpiresAt):
		return nil, repository.ErrRefreshTokenExpired
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, userID uuid.UUID, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists || refreshToken.UserID != userID || refreshToken.Revoked {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var closed int64
	for _, refreshToken := range m.tokens {
		if refreshToken.UserID == userID && !refreshToken.Revoked {
			refreshToken.Revoked = true
			closed++
		}
	}
	return closed, nil
}

var errStoreDown = errors.New("connection refused")

// mockProductStore is an in-memory ProductRepository in insertion order
type mockProductStore struct {
	products    []*domain.Product
	failAll     bool
	deleteCalls int
}

func (m *mockProductStore) Create(ctx context.Context, product *domain.Product) error {
	if m.failAll {
		return errStoreDown
	}
	product.ID = uuid.New()
	m.products = append(m.products, product)
	return nil
}

func (m *mockProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	out := make([]*domain.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *mockProductStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleteCalls++
	if m.failAll {
		return errStoreDown
	}
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}
