package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func Test_Client_AttachesHeaders(t *testing.T) {
	// given
	var gotAuth, gotReqID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	client := NewClient(server.URL, 0, discardLogger())
	client.SetToken("abc123")

	// when
	_, err := client.Get(context.Background(), "/productos")

	// then
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.NotEmpty(t, gotReqID)
}

func Test_Client_ClearToken(t *testing.T) {
	client := NewClient("http://localhost", 0, discardLogger())
	client.SetToken("abc123")
	client.ClearToken()
	assert.Empty(t, client.Token())
}

func Test_Client_ErrorClassification(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantAuth    bool
	}{
		{
			name:        "401 with server message",
			status:      http.StatusUnauthorized,
			body:        `{"message": "Token inválido"}`,
			wantMessage: "Token inválido",
			wantAuth:    true,
		},
		{
			name:        "403 with error key",
			status:      http.StatusForbidden,
			body:        `{"error": "Acción reservada"}`,
			wantMessage: "Acción reservada",
			wantAuth:    true,
		},
		{
			name:        "500 without message falls back to generic",
			status:      http.StatusInternalServerError,
			body:        `boom`,
			wantMessage: "request failed with status 500",
			wantAuth:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()
			client := NewClient(server.URL, 0, discardLogger())

			// when
			_, err := client.Get(context.Background(), "/productos")

			// then
			require.Error(t, err)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, tc.wantAuth, IsAuthError(err))
		})
	}
}

func Test_IsAuthError_NonAPIError(t *testing.T) {
	assert.False(t, IsAuthError(context.Canceled))
	assert.False(t, IsAuthError(nil))
}

type record struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

func Test_DataList(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want []record
	}{
		{
			name: "well formed array",
			body: `{"data": [{"id": 1, "nombre": "Teclado"}]}`,
			want: []record{{ID: 1, Nombre: "Teclado"}},
		},
		{
			name: "data is an object, coerced to empty",
			body: `{"data": {"id": 1}}`,
			want: []record{},
		},
		{
			name: "data missing, coerced to empty",
			body: `{"total": 3}`,
			want: []record{},
		},
		{
			name: "not json at all, coerced to empty",
			body: `<html>`,
			want: []record{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DataList[record]([]byte(tc.body)))
		})
	}
}

func Test_DataRecord(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		want   record
		wantOK bool
	}{
		{
			name:   "object envelope",
			body:   `{"data": {"id": 7, "nombre": "Monitor"}}`,
			want:   record{ID: 7, Nombre: "Monitor"},
			wantOK: true,
		},
		{
			name:   "array envelope takes first element",
			body:   `{"data": [{"id": 7, "nombre": "Monitor"}, {"id": 8}]}`,
			want:   record{ID: 7, Nombre: "Monitor"},
			wantOK: true,
		},
		{
			name:   "empty array is degenerate",
			body:   `{"data": []}`,
			wantOK: false,
		},
		{
			name:   "null data is degenerate",
			body:   `{"data": null}`,
			wantOK: false,
		},
		{
			name:   "missing data is degenerate",
			body:   `{"ok": true}`,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DataRecord[record]([]byte(tc.body))
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
