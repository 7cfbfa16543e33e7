package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

const (
	contentTypeJSON  = "application/json"
	contentTypeJSONL = "application/x-ndjson"

	// multipartThreshold is the snapshot size above which the market file is
	// uploaded in parts.
	multipartThreshold = 8 * 1024 * 1024
)

// Archiver implements domain.ScanArchiver. Every scan produces two objects
// under a date-partitioned prefix:
//
//	{prefix}/2025/01/31/{scan_id}.json           scan with ranked opportunities
//	{prefix}/2025/01/31/{scan_id}.markets.jsonl  market snapshot it ran against
type Archiver struct {
	writer domain.BlobWriter
	prefix string
}

// NewArchiver creates an Archiver writing through w under prefix.
func NewArchiver(w domain.BlobWriter, prefix string) *Archiver {
	return &Archiver{writer: w, prefix: strings.Trim(prefix, "/")}
}

// ArchiveScan uploads the scan and its market snapshot and returns the path
// of the scan object.
func (a *Archiver) ArchiveScan(ctx context.Context, scan domain.Scan, markets []domain.Market) (string, error) {
	scanPath, marketsPath := a.paths(scan)

	body, err := json.Marshal(scan)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal scan %s: %w", scan.ID, err)
	}
	if err := a.writer.Put(ctx, scanPath, bytes.NewReader(body), contentTypeJSON); err != nil {
		return "", fmt.Errorf("s3blob: archive scan %s: %w", scan.ID, err)
	}

	if len(markets) == 0 {
		return scanPath, nil
	}

	snapshot, err := marshalJSONL(markets)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal markets of scan %s: %w", scan.ID, err)
	}
	if len(snapshot) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, marketsPath, bytes.NewReader(snapshot), minPartSize)
	} else {
		err = a.writer.Put(ctx, marketsPath, bytes.NewReader(snapshot), contentTypeJSONL)
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: archive markets of scan %s: %w", scan.ID, err)
	}

	return scanPath, nil
}

// MarketsPath returns the snapshot object that accompanies a scan object.
func MarketsPath(scanPath string) string {
	return strings.TrimSuffix(scanPath, ".json") + ".markets.jsonl"
}

func (a *Archiver) paths(scan domain.Scan) (string, string) {
	day := scan.StartedAt.UTC().Format("2006/01/02")
	scanPath := path.Join(a.prefix, day, scan.ID+".json")
	return scanPath, MarketsPath(scanPath)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
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
var _ domain.ScanArchiver = (*Archiver)(nil)
