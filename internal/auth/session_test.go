package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/model"
)

type fakeNav struct {
	routes []string
}

func (f *fakeNav) To(route string) { f.routes = append(f.routes, route) }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, *api.Client, *fakeNav, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, 0, discardLogger())
	nav := &fakeNav{}
	credFile := filepath.Join(t.TempDir(), "token")
	return NewSession(client, nav, credFile, "/inicio-sesion", discardLogger()), client, nav, credFile
}

func Test_Session_Login(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ana@tienda.local", creds.Email)
		_, _ = w.Write([]byte(`{"data": {"token": "tok-1", "usuario": {"id": 1, "nombre": "Ana", "rol": "admin"}}}`))
	})
	session, client, _, credFile := newTestSession(t, handler)

	// when
	err := session.Login(context.Background(), Credentials{Email: "ana@tienda.local", Password: "demo"})

	// then
	require.NoError(t, err)
	assert.Equal(t, "tok-1", client.Token())
	require.NotNil(t, session.User())
	assert.Equal(t, "Ana", session.User().Nombre)
	assert.Equal(t, model.RoleAdmin, session.User().Rol)
	assert.True(t, session.IsAdmin())

	raw, err := os.ReadFile(credFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-1\n", string(raw))
}

func Test_Session_Login_MalformedResponse(t *testing.T) {
	session, client, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {}}`))
	}))

	err := session.Login(context.Background(), Credentials{Email: "a@b.c", Password: "x"})

	require.Error(t, err)
	assert.Nil(t, session.User())
	assert.Empty(t, client.Token())
}

func Test_Session_Expire(t *testing.T) {
	// given a logged-in session
	session, client, nav, credFile := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"token": "tok-1", "usuario": {"id": 1, "nombre": "Ana", "rol": "admin"}}}`))
	}))
	require.NoError(t, session.Login(context.Background(), Credentials{Email: "a@b.c", Password: "x"}))

	// when
	session.Expire()

	// then: hard reset of the client session state
	assert.Nil(t, session.User())
	assert.Empty(t, client.Token())
	assert.NoFileExists(t, credFile)
	assert.Equal(t, []string{"/inicio-sesion"}, nav.routes)
}

func Test_Session_Restore(t *testing.T) {
	testCases := []struct {
		name       string
		token      string
		perfil     func(w http.ResponseWriter)
		wantUser   bool
		wantToken  string
		wantNombre string
	}{
		{
			name:  "valid persisted token restores identity",
			token: "tok-9",
			perfil: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"data": {"id": 2, "nombre": "Marta", "rol": "moderador"}}`))
			},
			wantUser:   true,
			wantToken:  "tok-9",
			wantNombre: "Marta",
		},
		{
			name:  "rejected token leaves the session logged out",
			token: "tok-stale",
			perfil: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message": "Token inválido"}`))
			},
			wantUser:  false,
			wantToken: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			session, client, _, credFile := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/perfil", r.URL.Path)
				tc.perfil(w)
			}))
			require.NoError(t, os.WriteFile(credFile, []byte(tc.token+"\n"), 0o600))

			// when
			session.Restore(context.Background())

			// then
			assert.False(t, session.Loading())
			assert.Equal(t, tc.wantToken, client.Token())
			if tc.wantUser {
				require.NotNil(t, session.User())
				assert.Equal(t, tc.wantNombre, session.User().Nombre)
			} else {
				assert.Nil(t, session.User())
			}
		})
	}
}

func Test_Session_Restore_NoCredentialFile(t *testing.T) {
	session, client, _, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected without a persisted token")
	}))

	session.Restore(context.Background())

	assert.Nil(t, session.User())
	assert.Empty(t, client.Token())
}
