package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oftalmo/internal/shared/models"
)

var doctor = models.User{ID: 7, NomeCompleto: "Ana Souza", CRM: "12345-SP", Email: "ana@clinica.com"}

func TestHydrate(t *testing.T) {
	t.Run("token and user", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Set(KeyToken, "tok"))
		require.NoError(t, b.Set(KeyUser, `{"id":7,"nome_completo":"Ana Souza","crm":"12345-SP"}`))
		s := NewStore(b, nil)

		state, err := s.Hydrate()
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, state)
		user, ok := s.User()
		assert.True(t, ok)
		assert.Equal(t, "Ana Souza", user.NomeCompleto)
		tok, err := s.BearerToken()
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	})

	t.Run("nothing stored", func(t *testing.T) {
		s := NewStore(NewMemoryBackend(), nil)
		state, err := s.Hydrate()
		require.NoError(t, err)
		assert.Equal(t, StateUnauthenticated, state)
		tok, err := s.BearerToken()
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("only token", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Set(KeyToken, "tok"))
		s := NewStore(b, nil)
		state, err := s.Hydrate()
		require.NoError(t, err)
		assert.Equal(t, StateUnauthenticated, state)
		_, ok, _ := b.Get(KeyToken)
		assert.False(t, ok, "orphan token must be removed")
	})

	t.Run("only user", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Set(KeyUser, `{"id":7}`))
		s := NewStore(b, nil)
		state, err := s.Hydrate()
		require.NoError(t, err)
		assert.Equal(t, StateUnauthenticated, state)
		_, ok, _ := b.Get(KeyUser)
		assert.False(t, ok)
	})

	t.Run("corrupt user", func(t *testing.T) {
		b := NewMemoryBackend()
		require.NoError(t, b.Set(KeyToken, "tok"))
		require.NoError(t, b.Set(KeyUser, "{not json"))
		s := NewStore(b, nil)
		state, err := s.Hydrate()
		require.NoError(t, err)
		assert.Equal(t, StateUnauthenticated, state)
		_, okTok, _ := b.Get(KeyToken)
		_, okUser, _ := b.Get(KeyUser)
		assert.False(t, okTok)
		assert.False(t, okUser)
	})

	for name, stored := range map[string][2]string{
		"null user":   {"tok", "null"},
		"empty user":  {"tok", "{}"},
		"empty token": {"", `{"id":7,"nome_completo":"Ana Souza"}`},
	} {
		t.Run(name, func(t *testing.T) {
			b := NewMemoryBackend()
			require.NoError(t, b.Set(KeyToken, stored[0]))
			require.NoError(t, b.Set(KeyUser, stored[1]))
			s := NewStore(b, nil)

			state, err := s.Hydrate()
			require.NoError(t, err)
			assert.Equal(t, StateUnauthenticated, state)
			_, ok := s.User()
			assert.False(t, ok)
			_, okTok, _ := b.Get(KeyToken)
			_, okUser, _ := b.Get(KeyUser)
			assert.False(t, okTok)
			assert.False(t, okUser)
		})
	}
}

func TestBearerTokenBeforeHydrate(t *testing.T) {
	s := NewStore(NewMemoryBackend(), nil)
	assert.Equal(t, StateLoading, s.State())
	_, err := s.BearerToken()
	assert.ErrorIs(t, err, ErrNotHydrated)
}

func TestHydrateRunsOnce(t *testing.T) {
	b := NewMemoryBackend()
	s := NewStore(b, nil)
	_, err := s.Hydrate()
	require.NoError(t, err)

	require.NoError(t, b.Set(KeyToken, "late"))
	require.NoError(t, b.Set(KeyUser, `{"id":1}`))
	state, err := s.Hydrate()
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestLoginLogoutAcrossRestart(t *testing.T) {
	b := NewFileBackend(t.TempDir())

	first := NewStore(b, nil)
	_, err := first.Hydrate()
	require.NoError(t, err)
	require.NoError(t, first.Login("tok-1", doctor))
	assert.True(t, first.Authenticated())

	restarted := NewStore(b, nil)
	state, err := restarted.Hydrate()
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	user, _ := restarted.User()
	assert.Equal(t, doctor, user)
	tok, _ := restarted.BearerToken()
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, restarted.Logout())
	assert.Equal(t, StateUnauthenticated, restarted.State())

	again := NewStore(b, nil)
	state, err = again.Hydrate()
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestLoginRejectsIncompleteSession(t *testing.T) {
	s := NewStore(NewMemoryBackend(), nil)
	assert.Error(t, s.Login("", doctor))
	assert.ErrorIs(t, s.Login("tok", models.User{}), ErrEmptyUser)
	assert.Equal(t, StateLoading, s.State())
}

type failingUserBackend struct {
	*MemoryBackend
}

func (b failingUserBackend) Set(key, value string) error {
	if key == KeyUser {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Set(key, value)
}

func TestLoginRollsBackTokenWhenUserWriteFails(t *testing.T) {
	b := failingUserBackend{NewMemoryBackend()}
	s := NewStore(b, nil)
	_, _ = s.Hydrate()

	err := s.Login("tok", doctor)
	require.Error(t, err)
	_, ok, _ := b.Get(KeyToken)
	assert.False(t, ok)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestFileBackendPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := NewFileBackend(dir)
	require.NoError(t, b.Set(KeyToken, "tok"))

	v, ok, err := b.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(b.Path(KeyToken))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, b.Delete(KeyToken))
	require.NoError(t, b.Delete(KeyToken))
	_, ok, err = b.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
