package serviceimpl

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"eventphoto-api/domain/models"
	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "serviceimpl-logs")
	logger.Init(dir, false)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// memoryPhotoRepo keeps photos in insertion order
type memoryPhotoRepo struct {
	mu       sync.Mutex
	photos   []*models.Photo
	listErr  error
	saveErr  error
	replaced int
}

func (r *memoryPhotoRepo) add(photo models.Photo) *models.Photo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = time.Now().Add(time.Duration(len(r.photos)) * time.Second)
	}
	p := photo
	r.photos = append(r.photos, &p)
	return &p
}

func (r *memoryPhotoRepo) find(id uuid.UUID) *models.Photo {
	for _, p := range r.photos {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *memoryPhotoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryPhotoRepo) Update(ctx context.Context, photo *models.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	p := r.find(photo.ID)
	if p == nil {
		return gorm.ErrRecordNotFound
	}
	embeddings := p.FaceEmbeddings
	*p = *photo
	p.FaceEmbeddings = embeddings
	return nil
}

func (r *memoryPhotoRepo) filter(keep func(p *models.Photo) bool, limit int) []models.Photo {
	var out []models.Photo
	for _, p := range r.photos {
		if keep(p) {
			out = append(out, *p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memoryPhotoRepo) ListByStatus(ctx context.Context, status models.PhotoStatus, limit int) ([]models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(p *models.Photo) bool { return p.Status == status }, 0)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryPhotoRepo) ListApprovedWithEmbeddings(ctx context.Context) ([]models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.filter(func(p *models.Photo) bool { return p.IsApproved() && p.HasEmbeddings() }, 0), nil
}

func (r *memoryPhotoRepo) CountApprovedWithoutEmbeddings(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filter(func(p *models.Photo) bool { return p.IsApproved() && !p.HasEmbeddings() }, 0))), nil
}

func (r *memoryPhotoRepo) ListApprovedMissingEmbeddings(ctx context.Context, limit int) ([]models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.filter(func(p *models.Photo) bool { return p.IsApproved() && !p.HasEmbeddings() }, limit), nil
}

func (r *memoryPhotoRepo) ReplaceEmbeddings(ctx context.Context, photo *models.Photo, embeddings []models.FaceEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	p := r.find(photo.ID)
	if p == nil {
		return gorm.ErrRecordNotFound
	}
	for i := range embeddings {
		embeddings[i].PhotoID = photo.ID
	}
	p.FaceEmbeddings = embeddings
	if photo.PublicURL != "" {
		p.PublicURL = photo.PublicURL
	}
	photo.FaceEmbeddings = embeddings
	r.replaced++
	return nil
}

func (r *memoryPhotoRepo) EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.EmbeddingStats{EmbeddingsByDimension: map[int]int64{}}
	for _, p := range r.photos {
		if !p.IsApproved() {
			continue
		}
		stats.ApprovedPhotos++
		if p.HasEmbeddings() {
			stats.WithEmbeddings++
		}
		for i := range p.FaceEmbeddings {
			stats.EmbeddingsByDimension[p.FaceEmbeddings[i].Dimension()]++
		}
	}
	stats.MissingEmbeddings = stats.ApprovedPhotos - stats.WithEmbeddings
	return stats, nil
}

// scriptedGenerator answers by image URL (EmbedFromURL) or by call number
// (EmbedFromImage)
type scriptedGenerator struct {
	mu         sync.Mutex
	byURL      map[string][]services.GeneratedEmbedding
	urlErrs    map[string]error
	urlCalls   []string
	imageCalls []services.DetectionOptions
	imageReply func(call int) ([]services.GeneratedEmbedding, error)
	block      chan struct{}
}

func (g *scriptedGenerator) EmbedFromURL(ctx context.Context, imageURL string) ([]services.GeneratedEmbedding, error) {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.urlCalls = append(g.urlCalls, imageURL)
	if err := g.urlErrs[imageURL]; err != nil {
		return nil, err
	}
	return g.byURL[imageURL], nil
}

func (g *scriptedGenerator) EmbedFromImage(ctx context.Context, imageBase64 string, opts services.DetectionOptions) ([]services.GeneratedEmbedding, error) {
	g.mu.Lock()
	g.imageCalls = append(g.imageCalls, opts)
	call := len(g.imageCalls)
	g.mu.Unlock()
	if g.imageReply == nil {
		return nil, errors.New("unexpected call")
	}
	return g.imageReply(call)
}

type pathResolver struct{}

func (pathResolver) PublicURL(storagePath string) string {
	return "https://cdn.test/event-photos/" + storagePath
}

type fakeLock struct {
	mu         sync.Mutex
	held       bool
	acquireErr error
	acquired   int
	released   int
}

func (l *fakeLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.held {
		return false, nil
	}
	l.held = true
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released++
	return nil
}

type capturedMessage struct {
	Type string
	Data map[string]interface{}
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []capturedMessage
}

func (n *captureNotifier) Broadcast(messageType string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, capturedMessage{Type: messageType, Data: data})
}

func (n *captureNotifier) ofType(messageType string) []capturedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []capturedMessage
	for _, m := range n.messages {
		if m.Type == messageType {
			out = append(out, m)
		}
	}
	return out
}

func storedEmbedding(values ...float32) models.FaceEmbedding {
	return models.FaceEmbedding{
		ID:        uuid.New(),
		Embedding: pgvector.NewVector(values),
		Source:    models.EmbeddingSourceSeed,
	}
}

func generated(dim int, first float32) []services.GeneratedEmbedding {
	v := make([]float32, dim)
	v[0] = first
	return []services.GeneratedEmbedding{{Vector: v}}
}
