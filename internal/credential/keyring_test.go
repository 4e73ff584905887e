package credential_test

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/credential"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestGetPrefersEnvironment(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: credential.GeminiAPIKey, Data: []byte("from-ring")}})

	s := credential.NewWithKeyring(ring, env(map[string]string{"GEMINI_API_KEY": "from-env"}))
	v, err := s.Get(credential.GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	s = credential.NewWithKeyring(ring, env(nil))
	v, err = s.Get(credential.GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-ring", v)
}

func TestGetMissing(t *testing.T) {
	s := credential.NewWithKeyring(keyring.NewArrayKeyring(nil), env(nil))

	_, err := s.Get(credential.OAuthClientSecret)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "OAUTH_GOOGLE_CLIENT_SECRET")
}

func TestSetAndDelete(t *testing.T) {
	s := credential.NewWithKeyring(keyring.NewArrayKeyring(nil), env(nil))

	require.NoError(t, s.Set(credential.GeminiAPIKey, "secret"))
	v, err := s.Get(credential.GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	require.NoError(t, s.Delete(credential.GeminiAPIKey))
	_, err = s.Get(credential.GeminiAPIKey)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestSetValidation(t *testing.T) {
	s := credential.NewWithKeyring(keyring.NewArrayKeyring(nil), env(nil))

	require.ErrorIs(t, s.Set("aws_key", "x"), types.ErrValidation)
	require.ErrorIs(t, s.Set(credential.GeminiAPIKey, ""), types.ErrValidation)
	require.ErrorIs(t, s.Delete("aws_key"), types.ErrValidation)
	assert.Equal(t, "GEMINI_API_KEY", credential.EnvName(credential.GeminiAPIKey))
	assert.Len(t, credential.Keys(), 2)
}
