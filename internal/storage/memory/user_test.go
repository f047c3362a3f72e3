package memory

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VitaminP8/alumni-forum/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_for_jwt"

func TestUserMemoryStorage_RegisterUser(t *testing.T) {
	users := NewUserMemoryStorage(testSecret, time.Hour)

	t.Run("Successful user registration", func(t *testing.T) {
		user, err := users.RegisterUser("testuser", "test@example.com", "password123")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "testuser", user.Username)
		assert.Equal(t, "test@example.com", user.Email)
	})

	t.Run("Register user with duplicate username", func(t *testing.T) {
		_, err := users.RegisterUser("duplicateuser", "duplicate@example.com", "password123")
		require.NoError(t, err)

		_, err = users.RegisterUser("duplicateuser", "another@example.com", "anotherpassword")
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("Register user without password", func(t *testing.T) {
		_, err := users.RegisterUser("nopass", "nopass@example.com", "")
		assert.Error(t, err)
	})
}

func TestUserMemoryStorage_LoginUser(t *testing.T) {
	users := NewUserMemoryStorage(testSecret, time.Hour)

	_, err := users.RegisterUser("loginuser", "login@example.com", "loginpassword123")
	require.NoError(t, err)

	t.Run("Successful login", func(t *testing.T) {
		token, err := users.LoginUser("loginuser", "loginpassword123")
		require.NoError(t, err)

		// JWT состоит из трех частей, разделенных точками
		assert.Equal(t, 2, strings.Count(token, "."))
	})

	t.Run("Login with incorrect password", func(t *testing.T) {
		_, err := users.LoginUser("loginuser", "wrongpassword")
		assert.ErrorIs(t, err, storage.ErrInvalidCredentials)
	})

	t.Run("Login with non-existent user", func(t *testing.T) {
		_, err := users.LoginUser("nonexistentuser", "anypassword")
		assert.ErrorIs(t, err, storage.ErrInvalidCredentials)
	})

	t.Run("Login without JWT secret", func(t *testing.T) {
		noSecret := NewUserMemoryStorage("", time.Hour)
		_, err := noSecret.RegisterUser("u", "u@example.com", "p")
		require.NoError(t, err)

		_, err = noSecret.LoginUser("u", "p")
		assert.Error(t, err)
	})
}

func TestUserMemoryStorage_ConcurrentOperations(t *testing.T) {
	users := NewUserMemoryStorage(testSecret, time.Hour)

	var wg sync.WaitGroup
	numGoroutines := 10
	ids := make([]uint, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			name := "concurrent_user_" + strconv.Itoa(idx)
			user, err := users.RegisterUser(name, name+"@example.com", "pass"+strconv.Itoa(idx))
			if assert.NoError(t, err) {
				ids[idx] = user.ID
			}
		}(i)
	}
	wg.Wait()

	// все id уникальны
	seen := map[uint]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}
