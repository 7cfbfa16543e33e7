package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

type putCall struct {
	path        string
	body        []byte
	contentType string
	multipart   bool
}

type fakeWriter struct {
	calls []putCall
	err   error
}

func (f *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	body, _ := io.ReadAll(data)
	f.calls = append(f.calls, putCall{path: path, body: body, contentType: contentType})
	return f.err
}

func (f *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	body, _ := io.ReadAll(data)
	f.calls = append(f.calls, putCall{path: path, body: body, multipart: true})
	return f.err
}

func testScan() domain.Scan {
	return domain.Scan{
		ID:         "3f1c",
		Categories: []string{"sports"},
		StartedAt:  time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 2, 1, 0, 0, 1, 0, time.UTC),
	}
}

func TestArchiveScanWritesScanAndSnapshot(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w, "/scans/")
	markets := []domain.Market{
		{ID: "1", Outcomes: []string{"Yes"}, OutcomePrices: []float64{0.4}},
		{ID: "2", Outcomes: []string{"No"}, OutcomePrices: []float64{0.5}},
	}

	got, err := a.ArchiveScan(context.Background(), testScan(), markets)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if want := "scans/2025/01/31/3f1c.json"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if len(w.calls) != 2 {
		t.Fatalf("got %d uploads, want 2", len(w.calls))
	}
	if w.calls[0].contentType != contentTypeJSON || !bytes.Contains(w.calls[0].body, []byte(`"id":"3f1c"`)) {
		t.Errorf("unexpected scan upload: %+v", w.calls[0])
	}
	snap := w.calls[1]
	if snap.path != "scans/2025/01/31/3f1c.markets.jsonl" || snap.multipart {
		t.Errorf("unexpected snapshot upload: %s multipart=%v", snap.path, snap.multipart)
	}

	decoded, err := DecodeMarkets(bytes.NewReader(snap.body))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(decoded) != 2 || decoded[1].ID != "2" || decoded[0].OutcomePrices[0] != 0.4 {
		t.Errorf("snapshot round trip = %+v", decoded)
	}
}

func TestArchiveScanSkipsEmptySnapshot(t *testing.T) {
	w := &fakeWriter{}
	if _, err := NewArchiver(w, "").ArchiveScan(context.Background(), testScan(), nil); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(w.calls) != 1 || w.calls[0].path != "2025/01/31/3f1c.json" {
		t.Errorf("calls = %+v", w.calls)
	}
}

func TestArchiveScanPropagatesWriterError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewArchiver(&fakeWriter{err: boom}, "scans").ArchiveScan(context.Background(), testScan(), nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestMarketsPath(t *testing.T) {
	if got := MarketsPath("a/b/c.json"); got != "a/b/c.markets.jsonl" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeMarketsJSONLReportsLine(t *testing.T) {
	_, err := DecodeMarkets(strings.NewReader("{\"id\":\"1\"}\n\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("err = %v, want line 3", err)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"http://localhost:9000", true, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.in, tt.useSSL); got != tt.want {
			t.Errorf("normaliseEndpoint(%q, %v) = %q, want %q", tt.in, tt.useSSL, got, tt.want)
		}
	}
}
