package idp

import (
	"context"
	"sync"

	"github.com/eklabs/authgate/internal/auth/entity"
	"github.com/eklabs/authgate/internal/pkg/clock"
	"github.com/eklabs/authgate/internal/pkg/goerror"
	"github.com/eklabs/authgate/internal/pkg/hash"
	"github.com/eklabs/authgate/internal/pkg/uid"
)

type localAccount struct {
	user         entity.User
	passwordHash string
}

// Local is an in-memory identity provider for development and tests. State
// is lost on restart and not shared across instances.
type Local struct {
	mu      sync.RWMutex
	byEmail map[string]*localAccount
	byID    map[string]*localAccount
	hasher  hash.Hash
	uuid    uid.StringID
	clock   clock.Clocker
}

// NewLocal constructs the local driver.
func NewLocal(hasher hash.Hash, uuid uid.StringID, clk clock.Clocker) *Local {
	return &Local{
		byEmail: make(map[string]*localAccount),
		byID:    make(map[string]*localAccount),
		hasher:  hasher,
		uuid:    uuid,
		clock:   clk,
	}
}

// GetUserByEmail looks up an account by address.
func (l *Local) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	user := acc.user
	return &user, nil
}

// GetUserByID looks up an account by ID.
func (l *Local) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.byID[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	user := acc.user
	return &user, nil
}

// CreateUser provisions an unverified account.
func (l *Local) CreateUser(_ context.Context, in entity.NewUser) (*entity.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byEmail[in.Email]; exists {
		return nil, goerror.ErrConflict
	}

	hashed, err := l.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	acc := &localAccount{
		user: entity.User{
			ID:         l.uuid.Generate(),
			Email:      in.Email,
			Name:       in.Name,
			Role:       in.Role,
			Department: in.Department,
			CreatedAt:  l.clock.Now(),
		},
		passwordHash: string(hashed),
	}
	l.byEmail[in.Email] = acc
	l.byID[acc.user.ID] = acc

	user := acc.user
	return &user, nil
}

// VerifyPassword checks credentials. Unknown accounts and wrong passwords
// both return goerror.ErrNotFound.
func (l *Local) VerifyPassword(_ context.Context, email, password string) (*entity.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if !l.hasher.Verify(acc.passwordHash, password) {
		return nil, goerror.ErrNotFound
	}

	user := acc.user
	return &user, nil
}

// MarkEmailVerified flips the account's verified flag.
func (l *Local) MarkEmailVerified(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.byID[id]
	if !ok {
		return goerror.ErrNotFound
	}
	acc.user.EmailVerified = true

	return nil
}

// UpdatePassword replaces the account password.
func (l *Local) UpdatePassword(_ context.Context, id, newPassword string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.byID[id]
	if !ok {
		return goerror.ErrNotFound
	}

	hashed, err := l.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	acc.passwordHash = string(hashed)

	return nil
}

// SetDataSource stores the dashboard data source choice.
func (l *Local) SetDataSource(_ context.Context, id, source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.byID[id]
	if !ok {
		return goerror.ErrNotFound
	}
	acc.user.DataSource = source

	return nil
}
