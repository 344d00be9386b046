package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSaveAndFind(t *testing.T) {
	repo := NewUserRepository(bcrypt.MinCost)

	u, err := repo.Save(" alice ", "secret", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "alice", u.Account)

	got, ok := repo.FindByAccount("alice")
	require.True(t, ok)
	assert.Same(t, u, got)

	got, ok = repo.FindByID(1)
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = repo.FindByID(2)
	assert.False(t, ok)
	_, ok = repo.FindByAccount("bob")
	assert.False(t, ok)
}

func TestSaveRejects(t *testing.T) {
	repo := NewUserRepository(bcrypt.MinCost)
	_, err := repo.Save("alice", "secret", "")
	require.NoError(t, err)

	_, err = repo.Save("alice", "other", "")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = repo.Save("", "secret", "")
	assert.ErrorIs(t, err, ErrInvalidUser)

	_, err = repo.Save("bob", "", "")
	assert.ErrorIs(t, err, ErrInvalidUser)

	assert.Equal(t, 1, repo.Len())
}

func TestCheckPassword(t *testing.T) {
	repo := NewUserRepository(bcrypt.MinCost)
	u, err := repo.Save("alice", "secret", "")
	require.NoError(t, err)

	assert.True(t, u.CheckPassword("secret"))
	assert.False(t, u.CheckPassword("Secret"))
	assert.NotContains(t, string(u.passwordHash), "secret")

	var missing *User
	assert.False(t, missing.CheckPassword("secret"))
}

func TestConcurrentSave(t *testing.T) {
	repo := NewUserRepository(bcrypt.MinCost)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Save(fmt.Sprintf("user%d", i), "pw", "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all := repo.FindAll()
	require.Len(t, all, 20)
	for i, u := range all {
		assert.Equal(t, int64(i+1), u.ID)
	}
}

func TestUsersSeeded(t *testing.T) {
	u, ok := Users().FindByAccount(SeedAccount)
	require.True(t, ok)
	assert.Equal(t, SeedEmail, u.Email)
	assert.True(t, u.CheckPassword(SeedPassword))
	assert.Same(t, Users(), Users())
}
