package faceapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "faceapi-logs")
	logger.Init(dir, false)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// fakeEmbedService records every /embed request and answers with the
// handler for the matching call number
type fakeEmbedService struct {
	mu       sync.Mutex
	requests []EmbedRequest
	respond  func(call int, w http.ResponseWriter)
}

func (f *fakeEmbedService) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok","service":"face-recognition"}`))
			return
		}
		require.Equal(t, "/embed", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		f.requests = append(f.requests, req)
		call := len(f.requests)
		f.mu.Unlock()

		f.respond(call, w)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestEmbedFromURL_FirstAttemptSucceeds(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `{"embeddings":[{"embedding":[0.1,0.2],"bbox":[1,2,3,4]}],"facesFound":1}`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	embeddings, err := client.EmbedFromURL(context.Background(), "https://cdn/photo.jpg")

	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0].Vector)
	assert.Equal(t, []float64{1, 2, 3, 4}, embeddings[0].BoundingBox)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, EmbedRequest{ImageURL: "https://cdn/photo.jpg"}, fake.requests[0])
}

func TestEmbedFromURL_RetryFindsFaces(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		if call == 1 {
			writeJSON(w, http.StatusOK, `{"embeddings":[]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"embeddings":[[0.5,0.6,0.7]]}`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	embeddings, err := client.EmbedFromURL(context.Background(), "https://cdn/dark.jpg")

	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{0.5, 0.6, 0.7}, embeddings[0].Vector)
	assert.Nil(t, embeddings[0].BoundingBox)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, EmbedRequest{
		ImageURL:       "https://cdn/dark.jpg",
		DetectionModel: "cnn",
		Upsample:       2,
		NumJitters:     1,
	}, fake.requests[1])
}

func TestEmbedFromURL_RetriesAfterServerError(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		if call == 1 {
			writeJSON(w, http.StatusInternalServerError, `{"error":"Face detection failed"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"embeddings":[{"embedding":[1,2]}]}`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	embeddings, err := client.EmbedFromURL(context.Background(), "https://cdn/photo.jpg")

	require.NoError(t, err)
	assert.Len(t, embeddings, 1)
	assert.Len(t, fake.requests, 2)
}

func TestEmbedFromURL_NoFacesOnBothAttempts(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		writeJSON(w, http.StatusBadRequest, `{"error":"No faces found in image"}`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	embeddings, err := client.EmbedFromURL(context.Background(), "https://cdn/landscape.jpg")

	require.NoError(t, err)
	assert.NotNil(t, embeddings)
	assert.Empty(t, embeddings)
	assert.Len(t, fake.requests, 2)
}

func TestEmbedFromURL_RetryTransportFailure(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		writeJSON(w, http.StatusServiceUnavailable, `overloaded`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	embeddings, err := client.EmbedFromURL(context.Background(), "https://cdn/photo.jpg")

	assert.ErrorIs(t, err, ErrEmbeddingServiceUnavailable)
	assert.Empty(t, embeddings)
	assert.Len(t, fake.requests, 2)
}

func TestEmbedFromURL_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewFaceClient(url, time.Second)
	_, err := client.EmbedFromURL(context.Background(), "https://cdn/photo.jpg")

	assert.ErrorIs(t, err, ErrEmbeddingServiceUnavailable)
}

func TestEmbedFromURL_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := NewFaceClient(server.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := client.EmbedFromURL(context.Background(), "https://cdn/slow.jpg")

	assert.ErrorIs(t, err, ErrEmbeddingServiceUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEmbedFromImage_SingleCallWithOptions(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `{"facesFound":0}`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	opts := services.DetectionOptions{DetectionModel: "hog", Upsample: 1, NumJitters: 3}
	embeddings, err := client.EmbedFromImage(context.Background(), "aGVsbG8=", opts)

	require.NoError(t, err)
	assert.Empty(t, embeddings)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, EmbedRequest{
		ImageBase64:    "aGVsbG8=",
		DetectionModel: "hog",
		Upsample:       1,
		NumJitters:     3,
	}, fake.requests[0])
}

func TestEmbeddingItem_UnmarshalBothShapes(t *testing.T) {
	var resp EmbedResponse
	err := json.Unmarshal([]byte(`{"embeddings":[[1,2],{"embedding":[3,4],"bbox":[0,0,10,10]},{"bbox":[1]}]}`), &resp)

	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, []float32{1, 2}, resp.Embeddings[0].Embedding)
	assert.Equal(t, []float32{3, 4}, resp.Embeddings[1].Embedding)
	assert.Equal(t, []float64{0, 0, 10, 10}, resp.Embeddings[1].BBox)
	assert.Empty(t, resp.Embeddings[2].Embedding)
}

func TestIsAvailable(t *testing.T) {
	fake := &fakeEmbedService{}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	assert.True(t, client.IsAvailable(context.Background()))

	down := NewFaceClient("http://127.0.0.1:1", 100*time.Millisecond)
	assert.False(t, down.IsAvailable(context.Background()))
}

func TestEmbedFromImage_MalformedSuccessBody(t *testing.T) {
	fake := &fakeEmbedService{respond: func(call int, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `{"embeddings":`)
	}}
	client := NewFaceClient(fake.start(t).URL, time.Second)

	_, err := client.EmbedFromImage(context.Background(), "aGVsbG8=", services.DetectionOptions{})

	assert.ErrorIs(t, err, ErrEmbeddingServiceUnavailable)
	assert.Len(t, fake.requests, 1)
}
