// Package repository stores the accounts of the demo application in memory.
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateAccount is returned when saving an account name that is taken.
	ErrDuplicateAccount = errors.New("repository: account already exists")
	// ErrInvalidUser is returned for users missing an account or password.
	ErrInvalidUser = errors.New("repository: invalid user")
)

// User is a registered account. The password is only kept as a bcrypt hash.
type User struct {
	ID      int64  `json:"id"`
	Account string `json:"account"`
	Email   string `json:"email"`

	passwordHash []byte
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u == nil || len(u.passwordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil
}

// UserRepository is a concurrency safe in-memory user store.
type UserRepository struct {
	mu        sync.RWMutex
	cost      int
	nextID    int64
	byID      map[int64]*User
	byAccount map[string]*User
}

// NewUserRepository creates an empty repository hashing passwords with cost.
// A cost outside bcrypt's range selects bcrypt.DefaultCost.
func NewUserRepository(cost int) *UserRepository {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserRepository{
		cost:      cost,
		nextID:    1,
		byID:      make(map[int64]*User),
		byAccount: make(map[string]*User),
	}
}

// Save registers a new account and returns it with its assigned id.
func (r *UserRepository) Save(account, password, email string) (*User, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return nil, fmt.Errorf("%w: account and password are required", ErrInvalidUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAccount[account]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, account)
	}
	u := &User{
		ID:           r.nextID,
		Account:      account,
		Email:        strings.TrimSpace(email),
		passwordHash: hash,
	}
	r.nextID++
	r.byID[u.ID] = u
	r.byAccount[u.Account] = u
	return u, nil
}

// FindByAccount looks a user up by account name.
func (r *UserRepository) FindByAccount(account string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byAccount[account]
	return u, ok
}

// FindByID looks a user up by id.
func (r *UserRepository) FindByID(id int64) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	return u, ok
}

// FindAll returns every user ordered by id.
func (r *UserRepository) FindAll() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Seed account of the demo application.
const (
	SeedAccount  = "gugu"
	SeedPassword = "password"
	SeedEmail    = "hkkang@woowahan.com"
)

var (
	defaultUsers *UserRepository
	defaultOnce  sync.Once
)

// Users returns the process-wide repository, seeded with the demo account on
// first use.
func Users() *UserRepository {
	defaultOnce.Do(func() {
		defaultUsers = NewUserRepository(bcrypt.DefaultCost)
		if _, err := defaultUsers.Save(SeedAccount, SeedPassword, SeedEmail); err != nil {
			panic(fmt.Sprintf("repository: seed demo account: %v", err))
		}
	})
	return defaultUsers
}
