package s3blob

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemBlob() *memBlob {
	return &memBlob{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlob) PutObject(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	m.types[key] = contentType
	return nil
}

func (m *memBlob) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *memBlob) ListObjects(_ context.Context, prefix string) ([]domain.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Object
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, domain.Object{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

type memAudit struct {
	events []string
}

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *memAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, nil
}

func TestBriefPath(t *testing.T) {
	day := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "briefs/2026/03/09.json", BriefPath(day, "json"))
	assert.Equal(t, "briefs/2026/03/09.md", BriefPath(day, "md"))
}

func TestBriefArchive_RoundTrip(t *testing.T) {
	blob := newMemBlob()
	audit := &memAudit{}
	archive := NewBriefArchive(blob, blob, audit)
	ctx := context.Background()

	older := domain.Brief{GeneratedAt: time.Date(2026, time.March, 9, 17, 30, 0, 0, time.UTC)}
	newer := domain.Brief{
		GeneratedAt: time.Date(2026, time.March, 10, 17, 30, 0, 0, time.UTC),
		Exits:       []domain.ExitAction{{Symbol: "EQNR", Recommendation: domain.RecommendationStrongSell, Urgency: domain.UrgencyCritical}},
	}

	p, err := archive.Archive(ctx, newer, "# Daily brief 2026-03-10\n")
	require.NoError(t, err)
	assert.Equal(t, "briefs/2026/03/10.json", p)
	_, err = archive.Archive(ctx, older, "# Daily brief 2026-03-09\n")
	require.NoError(t, err)

	assert.Equal(t, "text/markdown; charset=utf-8", blob.types["briefs/2026/03/10.md"])
	assert.Equal(t, []string{"brief.archived", "brief.archived"}, audit.events)

	latest, err := archive.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, newer.GeneratedAt.Equal(latest.GeneratedAt))
	require.Len(t, latest.Exits, 1)
	assert.Equal(t, domain.UrgencyCritical, latest.Exits[0].Urgency)

	loaded, err := archive.Load(ctx, older.GeneratedAt)
	require.NoError(t, err)
	assert.True(t, older.GeneratedAt.Equal(loaded.GeneratedAt))
}

func TestBriefArchive_Empty(t *testing.T) {
	blob := newMemBlob()
	archive := NewBriefArchive(blob, blob, nil)

	_, err := archive.Latest(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = archive.Load(context.Background(), time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBriefArchive_CorruptObject(t *testing.T) {
	blob := newMemBlob()
	blob.objects["briefs/2026/03/10.json"] = []byte("{not json")
	archive := NewBriefArchive(blob, blob, nil)

	_, err := archive.Latest(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "decode brief")
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://e2.example.com", endpointURL("https://e2.example.com", false))
	assert.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	assert.Equal(t, "https://minio:9000", endpointURL("minio:9000", true))
}
