package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage"
)

type object struct {
	key  string
	size int64
}

type fakeLister struct {
	objects []object
	err     error
}

func (f *fakeLister) ListObjects(ctx context.Context, prefix string, fn func(string, int64, time.Time) error) error {
	if f.err != nil {
		return f.err
	}
	for _, o := range f.objects {
		if !strings.HasPrefix(o.key, prefix) {
			continue
		}
		if err := fn(o.key, o.size, time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("EST", -5*3600))); err != nil {
			return err
		}
	}
	return nil
}

type fakeListers map[string]*fakeLister

func (f fakeListers) Lister(ctx context.Context, backendType, bucket string) (storage.Lister, error) {
	l, ok := f[bucket]
	if !ok {
		return nil, errors.New("no such bucket")
	}
	return l, nil
}

type memSink map[string][]byte

func (m memSink) Put(ctx context.Context, location string, data []byte) error {
	m[location] = data
	return nil
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		key  string
		want *catalog.Metadata
	}{
		{
			key: "sopa/ProjA/50006A-TUQ97N-EA_2025-02-04-0920/output/experiment.xenium",
			want: &catalog.Metadata{
				SourceType: "sopa", Project: "ProjA",
				RunID: "50006A-TUQ97N-EA_2025-02-04-0920", BRPID: "50006A", Panel: "TUQ97N",
				CreatedDate: "2025-02-04",
			},
		},
		{
			key:  "sopa/ProjB/loose/experiment.xenium",
			want: &catalog.Metadata{SourceType: "sopa", Project: "ProjB"},
		},
		{
			key:  "experiment.xenium",
			want: &catalog.Metadata{SourceType: "sopa"},
		},
		{
			key: "sopa/P/A-B-C_nodate/experiment.xenium",
			want: &catalog.Metadata{
				SourceType: "sopa", Project: "P", RunID: "A-B-C_nodate", BRPID: "A", Panel: "B",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ExtractMetadata(tt.key, "sopa")); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun(t *testing.T) {
	listers := fakeListers{
		"bucket": {objects: []object{
			{key: "sopa/P1/B1-hMulti-2024-01-02_x/experiment.xenium", size: 42},
			{key: "sopa/P1/B1-hMulti-2024-01-02_x/cells.zarr/experiment.xenium", size: 1},
			{key: "sopa/P1/B1-hMulti-2024-01-02_x/cells.parquet", size: 2},
			{key: "raw/P9/run/experiment.xenium", size: 3},
		}},
	}
	sources := []config.SourceConfig{
		{Name: "sopa", Bucket: "bucket", Prefix: "sopa/"},
		{Name: "raw", Bucket: "bucket", Prefix: "raw/", Match: "experiment.xenium"},
	}

	ix := New(listers)
	ix.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	// Listing times are rendered in the indexer's zone, not the object's.
	ix.loc = time.FixedZone("CET", 3600)
	cat, stats, err := ix.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []catalog.FileRecord{
		{
			S3URI: "s3://bucket/sopa/P1/B1-hMulti-2024-01-02_x/experiment.xenium",
			Date:  "2024-05-06", Time: "13:08:09", Size: "42",
			Path: "sopa/P1/B1-hMulti-2024-01-02_x/experiment.xenium",
			Metadata: &catalog.Metadata{
				SourceType: "sopa", Project: "P1", RunID: "B1-hMulti-2024-01-02_x",
				BRPID: "B1", Panel: "hMulti", CreatedDate: "2024-01-02",
			},
		},
		{
			S3URI: "s3://bucket/raw/P9/run/experiment.xenium",
			Date:  "2024-05-06", Time: "13:08:09", Size: "3",
			Path:     "raw/P9/run/experiment.xenium",
			Metadata: &catalog.Metadata{SourceType: "raw", Project: "P9"},
		},
	}
	if diff := cmp.Diff(want, cat.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if cat.FileCount != 2 || cat.Bucket != "bucket" {
		t.Errorf("file_count = %d, bucket = %q", cat.FileCount, cat.Bucket)
	}
	wantStats := []SourceStats{
		{Name: "sopa", Kept: 1, Skipped: 1, Ignored: 1},
		{Name: "raw", Kept: 1},
	}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSourceError(t *testing.T) {
	listers := fakeListers{"bucket": {err: errors.New("access denied")}}
	_, _, err := New(listers).Run(context.Background(), []config.SourceConfig{{Name: "sopa", Bucket: "bucket"}})
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected listing error, got %v", err)
	}
	if _, _, err := New(listers).Run(context.Background(), []config.SourceConfig{{Name: "x", Bucket: "missing"}}); err == nil {
		t.Fatal("expected error for unknown bucket")
	}
}

func TestRunLocalDirectory(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "sopa", "P1", "B1-hMulti-2024-01-02_x", "experiment.xenium")
	skip := filepath.Join(root, "sopa", "P1", "B1-hMulti-2024-01-02_x", "a.zarr", "experiment.xenium")
	for _, p := range []string{keep, skip} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	resolver := storage.NewResolver(config.S3Config{}, nil)
	cat, stats, err := New(resolver).Run(context.Background(), []config.SourceConfig{
		{Name: "sopa", Backend: "local", Bucket: filepath.ToSlash(root), Prefix: "sopa"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(cat.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(cat.Files))
	}
	if got := cat.Files[0].Path; got != "sopa/P1/B1-hMulti-2024-01-02_x/experiment.xenium" {
		t.Errorf("path = %q", got)
	}
	if stats[0].Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats[0].Skipped)
	}
}

func TestWrite(t *testing.T) {
	sink := memSink{}
	cat := &catalog.Catalog{
		LastUpdated: catalog.Timestamp{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		Bucket:      "bucket",
		Files:       []catalog.FileRecord{},
	}
	if err := Write(context.Background(), sink, "s3://bucket/xenium_cache.json", cat); err != nil {
		t.Fatal(err)
	}
	data := string(sink["s3://bucket/xenium_cache.json"])
	for _, want := range []string{`"last_updated": "2024-06-01T00:00:00Z"`, `"file_count": 0`, `"files": []`} {
		if !strings.Contains(data, want) {
			t.Errorf("document missing %s:\n%s", want, data)
		}
	}
}
