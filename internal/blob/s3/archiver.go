package s3blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

const briefPrefix = "briefs/"

// BriefArchive stores every generated brief twice: JSON for machines at
// briefs/YYYY/MM/DD.json and markdown for people at briefs/YYYY/MM/DD.md.
// A second brief on the same day overwrites the first.
type BriefArchive struct {
	writer domain.ObjectWriter
	reader domain.ObjectReader
	audit  domain.AuditStore
}

// NewBriefArchive creates a BriefArchive. audit may be nil.
func NewBriefArchive(writer domain.ObjectWriter, reader domain.ObjectReader, audit domain.AuditStore) *BriefArchive {
	return &BriefArchive{writer: writer, reader: reader, audit: audit}
}

// BriefPath returns the object key of the brief for day with the given
// extension ("json" or "md").
func BriefPath(day time.Time, ext string) string {
	return fmt.Sprintf("%s%s.%s", briefPrefix, day.UTC().Format("2006/01/02"), ext)
}

// Archive uploads b and its markdown rendering and returns the JSON path.
func (a *BriefArchive) Archive(ctx context.Context, b domain.Brief, markdown string) (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal brief: %w", err)
	}

	jsonPath := BriefPath(b.GeneratedAt, "json")
	if err := a.writer.PutObject(ctx, jsonPath, data, "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive brief: %w", err)
	}
	mdPath := BriefPath(b.GeneratedAt, "md")
	if err := a.writer.PutObject(ctx, mdPath, []byte(markdown), "text/markdown; charset=utf-8"); err != nil {
		return jsonPath, fmt.Errorf("s3blob: archive brief markdown: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "brief.archived", map[string]any{
			"path":    jsonPath,
			"exits":   len(b.Exits),
			"entries": len(b.Entries),
		}); err != nil {
			return jsonPath, fmt.Errorf("s3blob: archive brief audit log: %w", err)
		}
	}
	return jsonPath, nil
}

// Load reads the archived brief for day.
func (a *BriefArchive) Load(ctx context.Context, day time.Time) (domain.Brief, error) {
	return a.load(ctx, BriefPath(day, "json"))
}

// Latest returns the most recent archived brief, or domain.ErrNotFound when
// the archive is empty.
func (a *BriefArchive) Latest(ctx context.Context) (domain.Brief, error) {
	objects, err := a.reader.ListObjects(ctx, briefPrefix)
	if err != nil {
		return domain.Brief{}, fmt.Errorf("s3blob: list briefs: %w", err)
	}

	var keys []string
	for _, obj := range objects {
		if path.Ext(obj.Key) == ".json" {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return domain.Brief{}, domain.ErrNotFound
	}
	// Keys are zero-padded dates, so the lexical maximum is the newest.
	return a.load(ctx, slices.Max(keys))
}

func (a *BriefArchive) load(ctx context.Context, key string) (domain.Brief, error) {
	data, err := a.reader.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Brief{}, domain.ErrNotFound
		}
		return domain.Brief{}, fmt.Errorf("s3blob: load brief %s: %w", key, err)
	}

	var b domain.Brief
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Brief{}, fmt.Errorf("s3blob: decode brief %s: %w", key, err)
	}
	return b, nil
}
