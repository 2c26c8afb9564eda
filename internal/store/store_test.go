package store

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/auth"
	"github.com/tiendactl/tiendactl/internal/model"
)

type fakeSession struct {
	expired int
}

func (f *fakeSession) Expire() { f.expired++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestStore builds a product store against a stub server handler.
func newTestStore(t *testing.T, handler http.HandlerFunc) (*ProductStore, *fakeSession) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, 0, discardLogger())
	session := &fakeSession{}
	return NewProductStore(client, session, discardLogger()), session
}

func Test_Store_List(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantItems []model.Product
	}{
		{
			name:      "collection equals the data array",
			body:      `{"data": [{"id": 1, "nombre": "Teclado", "precio": 95.5}, {"id": 2, "nombre": "Monitor", "precio": 320}]}`,
			wantItems: []model.Product{{ID: 1, Nombre: "Teclado", Precio: 95.5}, {ID: 2, Nombre: "Monitor", Precio: 320}},
		},
		{
			name:      "malformed data coerces to empty, never throws",
			body:      `{"data": {"unexpected": true}}`,
			wantItems: []model.Product{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store, _ := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})

			// when
			err := store.List(context.Background())

			// then
			require.NoError(t, err)
			assert.Equal(t, tc.wantItems, store.Items())
			assert.False(t, store.Loading())
			assert.Empty(t, store.Err())
		})
	}
}

func Test_Store_List_FailureStoresMessage(t *testing.T) {
	// given
	store, session := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "algo salió mal"}`))
	})

	// when
	err := store.List(context.Background())

	// then
	require.Error(t, err)
	assert.Equal(t, "algo salió mal", store.Err())
	assert.False(t, store.Loading())
	assert.Zero(t, session.expired)

	// and the error is cleared by the next list attempt
	store.ClearError()
	assert.Empty(t, store.Err())
}

func Test_Store_Create(t *testing.T) {
	// given
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data": [{"id": 1, "nombre": "Teclado", "precio": 95.5}]}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data": [{"id": 2, "nombre": "Mouse", "precio": 25}]}`))
		}
	})
	require.NoError(t, store.List(context.Background()))

	// when
	created, err := store.Create(context.Background(), model.Product{Nombre: "Mouse", Precio: 25})

	// then: server record (first array element) is appended and returned
	require.NoError(t, err)
	assert.Equal(t, model.Product{ID: 2, Nombre: "Mouse", Precio: 25}, created)
	assert.Len(t, store.Items(), 2)
	assert.Equal(t, created, store.Items()[1])
}

func Test_Store_Create_DegenerateResponseKeepsBody(t *testing.T) {
	// given
	store, _ := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	// when
	created, err := store.Create(context.Background(), model.Product{Nombre: "Mouse", Precio: 25})

	// then: request body without id is kept
	require.NoError(t, err)
	assert.Equal(t, model.Product{ID: 0, Nombre: "Mouse", Precio: 25}, created)
	assert.Equal(t, []model.Product{created}, store.Items())
}

func Test_Store_Create_FailureRecordsAndReturnsError(t *testing.T) {
	// given
	store, _ := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "precio inválido"}`))
	})

	// when
	_, err := store.Create(context.Background(), model.Product{Nombre: "Mouse"})

	// then
	require.Error(t, err)
	assert.Equal(t, "precio inválido", store.Err())
	assert.Empty(t, store.Items())
}

func Test_Store_Update_TouchesOnlyMatchingRecord(t *testing.T) {
	// given
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data": [{"id": 1, "nombre": "Teclado", "precio": 95.5}, {"id": 2, "nombre": "Mouse", "precio": 25}]}`))
		case http.MethodPut:
			assert.Equal(t, "/productos/2", r.URL.Path)
			_, _ = w.Write([]byte(`{"data": {"id": 2, "nombre": "Mouse Pro", "precio": 40}}`))
		}
	})
	require.NoError(t, store.List(context.Background()))
	before := store.Items()

	// when
	updated, err := store.Update(context.Background(), 2, model.Product{Nombre: "Mouse Pro", Precio: 40})

	// then
	require.NoError(t, err)
	assert.Equal(t, model.Product{ID: 2, Nombre: "Mouse Pro", Precio: 40}, updated)
	after := store.Items()
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, updated, after[1])
}

func Test_Store_Update_FallbackMergesBodyAndID(t *testing.T) {
	// given: server answers without envelope data
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"data": [{"id": 5, "nombre": "Teclado", "precio": 95.5}]}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, store.List(context.Background()))

	// when
	updated, err := store.Update(context.Background(), 5, model.Product{Nombre: "Teclado TKL", Precio: 80})

	// then
	require.NoError(t, err)
	assert.Equal(t, model.Product{ID: 5, Nombre: "Teclado TKL", Precio: 80}, updated)
	assert.Equal(t, updated, store.Items()[0])
}

func Test_Store_Delete(t *testing.T) {
	// given
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"data": [{"id": 1, "nombre": "Teclado", "precio": 95.5}, {"id": 2, "nombre": "Mouse", "precio": 25}]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, store.List(context.Background()))

	// when: removing an existing id
	require.NoError(t, store.Delete(context.Background(), 1))

	// then: exactly one record is gone and the flag never toggled
	assert.Equal(t, []model.Product{{ID: 2, Nombre: "Mouse", Precio: 25}}, store.Items())
	assert.False(t, store.Loading())

	// and an absent id is a no-op
	require.NoError(t, store.Delete(context.Background(), 99))
	assert.Len(t, store.Items(), 1)
}

func Test_Store_AuthError_TriggersRecovery(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		// given
		store, session := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message": "no autorizado"}`))
		})

		// when
		err := store.List(context.Background())

		// then: recovery fired, store error stays empty
		require.Error(t, err)
		assert.Equal(t, 1, session.expired)
		assert.Empty(t, store.Err())
	}
}

type fakeNav struct {
	routes []string
}

func (f *fakeNav) To(route string) { f.routes = append(f.routes, route) }

// The full recovery path: a 401 from any store operation clears the local
// credential, clears the default outgoing credential and forces navigation
// to the login route, uniformly for all three stores.
func Test_Store_AuthRecovery_EndToEnd(t *testing.T) {
	// given
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "token expirado"}`))
	}))
	t.Cleanup(server.Close)

	credFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(credFile, []byte("stale-token\n"), 0o600))

	client := api.NewClient(server.URL, 0, discardLogger())
	client.SetToken("stale-token")
	nav := &fakeNav{}
	session := auth.NewSession(client, nav, credFile, "/inicio-sesion", discardLogger())

	stores := map[string]func(context.Context) error{
		"productos": NewProductStore(client, session, discardLogger()).List,
		"usuarios":  NewUserStore(client, session, discardLogger()).List,
		"ventas":    NewSaleStore(client, session, discardLogger()).List,
	}

	for name, list := range stores {
		t.Run(name, func(t *testing.T) {
			client.SetToken("stale-token")
			require.NoError(t, os.WriteFile(credFile, []byte("stale-token\n"), 0o600))
			nav.routes = nil

			// when
			err := list(context.Background())

			// then
			require.Error(t, err)
			assert.Empty(t, client.Token())
			assert.NoFileExists(t, credFile)
			assert.Equal(t, []string{"/inicio-sesion"}, nav.routes)
		})
	}
}

func Test_Mount_ListsAllStores(t *testing.T) {
	// given
	var mu sync.Mutex
	hits := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, 0, discardLogger())
	session := &fakeSession{}
	products := NewProductStore(client, session, discardLogger())
	users := NewUserStore(client, session, discardLogger())
	sales := NewSaleStore(client, session, discardLogger())

	// when
	err := Mount(context.Background(), products.List, users.List, sales.List)

	// then
	require.NoError(t, err)
	assert.Equal(t, 1, hits["/productos"])
	assert.Equal(t, 1, hits["/usuarios"])
	assert.Equal(t, 1, hits["/ventas"])
}
