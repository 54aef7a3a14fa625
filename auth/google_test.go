package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/memoriesapp/memories/client/notify"
)

func newGoogleServer(t *testing.T, idToken string, userinfoStatus int) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" || userinfoStatus != http.StatusOK {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(googleUser{Sub: "g-42", Email: "ada@gmail.com", Name: "Ada L", Picture: "https://img/ada"})
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider("cid", "secret", "http://localhost/callback",
		WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}),
		WithUserInfoURL(srv.URL+"/userinfo"),
	)
}

func TestGoogleProvider_AuthURL(t *testing.T) {
	p := NewGoogleProvider("cid", "secret", "http://localhost/callback")
	u := p.AuthURL("state-1")
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "accounts.google.com")
}

func TestGoogleProvider_SignIn(t *testing.T) {
	idToken := signedToken(t, jwt.MapClaims{"sub": "g-42"})
	srv := newGoogleServer(t, idToken, http.StatusOK)
	f := newFixture(t)

	require.NoError(t, newTestProvider(srv).SignIn(context.Background(), f.c, "good-code"))
	s, ok := f.sessions.Current()
	require.True(t, ok)
	assert.Equal(t, "g-42", s.Result.GoogleID)
	assert.Equal(t, "https://img/ada", s.Result.ImageURL)
	assert.Equal(t, idToken, s.Token)
}

func TestGoogleProvider_BadCodeNotifies(t *testing.T) {
	srv := newGoogleServer(t, "unused", http.StatusOK)
	f := newFixture(t)

	require.Error(t, newTestProvider(srv).SignIn(context.Background(), f.c, "bad-code"))
	assert.Equal(t, []string{MsgGoogleFailed}, f.messages(notify.SeverityError))
	_, ok := f.sessions.Current()
	assert.False(t, ok)
}

func TestGoogleProvider_UserinfoFailure(t *testing.T) {
	srv := newGoogleServer(t, signedToken(t, jwt.MapClaims{"sub": "g-42"}), http.StatusUnauthorized)
	_, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}
