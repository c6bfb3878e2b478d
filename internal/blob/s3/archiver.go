package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arcmarket/arcx/internal/domain"
)

// multipartThreshold is the payload size above which archives switch from a
// single PutObject to a managed multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// MatchArchiveStore is the narrow store surface the archiver needs: reading
// matches older than a cutoff and pruning them once the archive landed.
type MatchArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.MatchEvent, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveImpl implements domain.Archiver by querying the match store for old
// records, serializing them to JSONL, uploading the result to S3, and
// pruning the archived rows from the primary store.
type ArchiveImpl struct {
	writer  domain.BlobWriter
	matches MatchArchiveStore
	audit   domain.AuditStore
}

// NewArchiver creates a new ArchiveImpl. audit may be nil, in which case
// archival actions are not recorded.
func NewArchiver(writer domain.BlobWriter, matches MatchArchiveStore, audit domain.AuditStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:  writer,
		matches: matches,
		audit:   audit,
	}
}

// ArchiveMatches moves every match settled strictly before the cutoff to
// cold storage at archive/matches/YYYY-MM.jsonl, then deletes the archived
// rows. Rows are deleted only after the upload succeeded, so a failed upload
// leaves the primary store untouched.
func (a *ArchiveImpl) ArchiveMatches(ctx context.Context, before time.Time) (int64, error) {
	matches, err := a.matches.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches query: %w", err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(matches)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches marshal: %w", err)
	}

	path := archivePath("matches", before)
	if int64(len(buf)) >= multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches upload: %w", err)
	}

	deleted, err := a.matches.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches prune: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.matches", map[string]any{
			"path":    path,
			"count":   len(matches),
			"deleted": deleted,
			"before":  before.Format(time.RFC3339),
		}); err != nil {
			return int64(len(matches)), fmt.Errorf("s3blob: archive matches audit log: %w", err)
		}
	}

	return int64(len(matches)), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/matches/2026-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
