package google

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"shh",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(clientSecret))
	require.NoError(t, err)
	assert.Equal(t, "cid.apps.googleusercontent.com", cfg.ClientID)
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/spreadsheets")

	_, err = OAuthConfig([]byte(`{}`))
	assert.Error(t, err)
}

func TestReadClientSecret(t *testing.T) {
	b, err := ReadClientSecret(" {\"a\":1} ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecret), 0600))
	b, err = ReadClientSecret("", path)
	require.NoError(t, err)
	assert.Equal(t, clientSecret, string(b))

	_, err = ReadClientSecret("", "")
	assert.Error(t, err)
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: expiry}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("st", codeCh, errCh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=c", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, codeCh)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=st&code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", <-codeCh)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ErrorContains(t, <-errCh, "access_denied")
}
