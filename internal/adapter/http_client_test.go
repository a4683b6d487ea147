package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "docmig.dev/pkg/docmig/internal/model"
)

// fakeStore serves the export and mutate endpoints of one dataset.
type fakeStore struct {
	mu        sync.Mutex
	export    string
	status    int
	requests  []*http.Request
	mutations []map[string]any
}

func (s *fakeStore) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/{version}/data/export/{dataset}", func(w http.ResponseWriter, req *http.Request) {
		s.record(req)

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, s.export)
	})

	r.Post("/{version}/data/mutate/{dataset}", func(w http.ResponseWriter, req *http.Request) {
		s.record(req)

		if s.status != 0 {
			http.Error(w, `{"error":"permission denied"}`, s.status)
			return
		}

		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.mutations = append(s.mutations, body)
		s.mu.Unlock()

		_, _ = io.WriteString(w, `{"transactionId":"ok","results":[]}`)
	})

	return r
}

func (s *fakeStore) record(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req.Clone(context.Background()))
}

// snapshot returns what the server has seen so far.
func (s *fakeStore) snapshot() ([]*http.Request, []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*http.Request(nil), s.requests...), append([]map[string]any(nil), s.mutations...)
}

func newTestClient(t *testing.T, store *fakeStore) *Client {
	t.Helper()

	server := httptest.NewServer(store.routes())
	t.Cleanup(server.Close)

	return NewClient(APIConfig{
		ProjectID:  "p1",
		Dataset:    "staging",
		APIVersion: "2024-01-29",
		Token:      "secret",
		BaseURL:    server.URL,
	}, server.Client())
}

func TestHTTPExportSource_Documents(t *testing.T) {
	// Arrange
	store := &fakeStore{export: "{\"_id\":\"a\",\"_type\":\"post\"}\n{\"_id\":\"b\",\"_type\":\"post\"}\n"}
	client := newTestClient(t, store)

	// Act
	docs, err := readAll(t, NewHTTPExportSource(client, []string{"post", "page"}))

	// Assert
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].ID())

	requests, _ := store.snapshot()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "/v2024-01-29/data/export/staging", req.URL.Path)
	assert.Equal(t, "post,page", req.URL.Query().Get("types"))
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "docmig", req.Header.Get("User-Agent"))
}

func TestHTTPMutateSink_Submit(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	client := newTestClient(t, store)
	sink := NewHTTPMutateSink(client, MutateOptions{Tag: "docmig.migration", Visibility: VisibilityAsync})

	batch := m.MutationBatch{
		m.Patch("a", m.At(m.Path{m.Key("title")}, m.Set("y"))),
		m.Delete("b"),
	}

	// Act
	err := sink.Submit(context.Background(), batch)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	// Assert
	requests, mutations := store.snapshot()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "/v2024-01-29/data/mutate/staging", req.URL.Path)
	assert.Equal(t, "docmig.migration", req.URL.Query().Get("tag"))
	assert.Equal(t, "async", req.URL.Query().Get("visibility"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	require.Len(t, mutations, 1)
	body := mutations[0]

	_, err = uuid.Parse(body["transactionId"].(string))
	assert.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"patch": map[string]any{"id": "a", "set": map[string]any{"title": "y"}}},
		map[string]any{"delete": map[string]any{"id": "b"}},
	}, body["mutations"])
}

func TestHTTPMutateSink_TransactionPerBatch(t *testing.T) {
	store := &fakeStore{}
	sink := NewHTTPMutateSink(newTestClient(t, store), MutateOptions{})

	ids := []string{"tx-1", "tx-2"}
	sink.newID = func() string {
		id := ids[0]
		ids = ids[1:]

		return id
	}

	require.NoError(t, sink.Submit(context.Background(), m.MutationBatch{m.Delete("a")}))
	require.NoError(t, sink.Submit(context.Background(), m.MutationBatch{m.Delete("b")}))

	_, mutations := store.snapshot()
	require.Len(t, mutations, 2)
	assert.Equal(t, "tx-1", mutations[0]["transactionId"])
	assert.Equal(t, "tx-2", mutations[1]["transactionId"])
}

func TestHTTPMutateSink_APIError(t *testing.T) {
	store := &fakeStore{status: http.StatusForbidden}
	sink := NewHTTPMutateSink(newTestClient(t, store), MutateOptions{})

	err := sink.Submit(context.Background(), m.MutationBatch{m.Delete("a")})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "POST", apiErr.Method)
	assert.Contains(t, apiErr.Body, "permission denied")
}

func TestHTTPMutateSink_UnsupportedOperationIsNotSent(t *testing.T) {
	store := &fakeStore{}
	sink := NewHTTPMutateSink(newTestClient(t, store), MutateOptions{})

	err := sink.Submit(context.Background(), m.MutationBatch{
		m.Patch("a", m.At(m.Path{m.Key("list")}, m.Upsert(m.After, nil, "x"))),
	})

	require.ErrorIs(t, err, ErrUnsupportedOperation)
	requests, _ := store.snapshot()
	assert.Empty(t, requests)
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(store.routes())
	t.Cleanup(server.Close)

	client := NewClient(APIConfig{Dataset: "d", APIVersion: "1", BaseURL: server.URL}, nil)

	_, err := readAll(t, NewHTTPExportSource(client, nil))

	require.NoError(t, err)
	requests, _ := store.snapshot()
	require.Len(t, requests, 1)
	assert.Empty(t, requests[0].Header.Get("Authorization"))
	assert.Equal(t, APIConfig{Dataset: "d", APIVersion: "1", BaseURL: server.URL}, client.Config())
}
