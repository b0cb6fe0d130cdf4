package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRESTStore(t *testing.T, handler http.HandlerFunc) *RESTStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewRESTStore(RESTConfig{BaseURL: server.URL, APIKey: "anon-key"})
	require.NoError(t, err)
	return store
}

func TestRESTStore_InsertEntry(t *testing.T) {
	store := newTestRESTStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/journal_entries", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var sent map[string]any
		require.NoError(t, json.Unmarshal(body, &sent))
		assert.NotContains(t, sent, "id")
		assert.Equal(t, "u1", sent["user_id"])
		assert.Equal(t, map[string]any{"happiness": 0.9}, sent["mood"])

		sent["id"] = "server-id"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]any{sent})
	})

	row, err := store.InsertEntry(context.Background(), EntryRow{
		UserID: "u1",
		Text:   "I feel happy",
		Mood:   json.RawMessage(`{"happiness":0.9}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "server-id", row.ID)
	assert.Equal(t, "I feel happy", row.Text)
	assert.JSONEq(t, `{"happiness":0.9}`, string(row.Mood))
}

func TestRESTStore_SelectEntries(t *testing.T) {
	store := newTestRESTStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		_, _ = io.WriteString(w, `[
			{"id":"a","user_id":"u1","text":"one","mood":{"fear":0.6},"mood_keywords":null,"created_at":"2024-03-01T10:00:00Z"},
			{"id":"b","user_id":"u1","text":"two","mood":{},"mood_keywords":["x"],"created_at":"2024-02-01T10:00:00Z"}
		]`)
	})

	rows, err := store.SelectEntries(context.Background(), RowFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, []string{}, rows[0].MoodKeywords)
	assert.Equal(t, []string{"x"}, rows[1].MoodKeywords)
	assert.Equal(t, 2024, rows[0].CreatedAt.Year())
}

func TestRESTStore_DeleteEntries(t *testing.T) {
	var gotQuery string
	store := newTestRESTStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, store.DeleteEntries(context.Background(), RowFilter{ID: "e1", UserID: "u1"}))
	assert.Contains(t, gotQuery, "id=eq.e1")
	assert.Contains(t, gotQuery, "user_id=eq.u1")

	assert.ErrorIs(t, store.DeleteEntries(context.Background(), RowFilter{}), ErrEmptyFilter)
}

func TestRESTStore_Errors(t *testing.T) {
	t.Run("server error is unavailable", func(t *testing.T) {
		store := newTestRESTStore(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		})
		_, err := store.SelectEntries(context.Background(), RowFilter{UserID: "u1"})
		assert.ErrorIs(t, err, common.ErrUnavailable)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})

	t.Run("client error is not unavailable", func(t *testing.T) {
		store := newTestRESTStore(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
		})
		_, err := store.SelectEntries(context.Background(), RowFilter{UserID: "u1"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrUnavailable)
	})

	t.Run("connection refused is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		store, err := NewRESTStore(RESTConfig{BaseURL: url})
		require.NoError(t, err)
		_, err = store.SelectEntries(context.Background(), RowFilter{UserID: "u1"})
		assert.ErrorIs(t, err, common.ErrUnavailable)
	})
}
