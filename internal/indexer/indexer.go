// Package indexer builds the catalog document from bucket listings.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage"
)

// DefaultMatch selects the objects kept in the catalog.
const DefaultMatch = "experiment.xenium"

// Listers hands out a storage.Lister per source. storage.Resolver
// satisfies it.
type Listers interface {
	Lister(ctx context.Context, backendType, bucket string) (storage.Lister, error)
}

// Putter writes the finished document. storage.Resolver satisfies it.
type Putter interface {
	Put(ctx context.Context, location string, data []byte) error
}

// SourceStats counts what happened to the objects of one source.
type SourceStats struct {
	Name    string
	Kept    int
	Skipped int // inside .zarr directories
	Ignored int // not matching
}

// Indexer scans configured sources. Record dates and times are written in
// the host's local zone, the way bucket listings print them.
type Indexer struct {
	listers Listers
	now     func() time.Time
	loc     *time.Location
}

// New creates an Indexer.
func New(listers Listers) *Indexer {
	return &Indexer{listers: listers, now: time.Now, loc: time.Local}
}

// Run lists every source in parallel and returns the combined catalog.
// Records keep source order, then listing order within a source.
func (ix *Indexer) Run(ctx context.Context, sources []config.SourceConfig) (*catalog.Catalog, []SourceStats, error) {
	results := make([][]catalog.FileRecord, len(sources))
	stats := make([]SourceStats, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			records, st, err := ix.scan(ctx, src)
			if err != nil {
				return fmt.Errorf("index source %s: %w", src.Name, err)
			}
			results[i] = records
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var files []catalog.FileRecord
	for _, r := range results {
		files = append(files, r...)
	}
	if files == nil {
		files = []catalog.FileRecord{}
	}
	cat := &catalog.Catalog{
		LastUpdated: catalog.Timestamp{Time: ix.now().UTC()},
		Bucket:      bucketLabel(sources),
		FileCount:   len(files),
		Files:       files,
	}
	return cat, stats, nil
}

func (ix *Indexer) scan(ctx context.Context, src config.SourceConfig) ([]catalog.FileRecord, SourceStats, error) {
	st := SourceStats{Name: src.Name}
	lister, err := ix.listers.Lister(ctx, src.Backend, src.Bucket)
	if err != nil {
		return nil, st, err
	}

	match := src.Match
	if match == "" {
		match = DefaultMatch
	}
	local := src.Backend == "local"
	prefix := src.Prefix
	if local {
		prefix = path.Join(src.Bucket, src.Prefix)
	}

	logging.Info("listing source",
		zap.String("source", src.Name),
		zap.String("bucket", src.Bucket),
		zap.String("prefix", src.Prefix))

	var records []catalog.FileRecord
	err = lister.ListObjects(ctx, prefix, func(key string, size int64, modified time.Time) error {
		if local {
			key = strings.TrimPrefix(key, strings.TrimSuffix(src.Bucket, "/")+"/")
		}
		switch {
		case inZarr(key):
			st.Skipped++
			metrics.RecordIndexedObject(src.Name, "skipped")
		case !strings.Contains(key, match):
			st.Ignored++
			metrics.RecordIndexedObject(src.Name, "ignored")
		default:
			st.Kept++
			metrics.RecordIndexedObject(src.Name, "kept")
			records = append(records, newRecord(src, key, size, modified.In(ix.loc)))
		}
		return nil
	})
	if err != nil {
		return nil, st, err
	}

	logging.Info("source indexed",
		zap.String("source", src.Name),
		zap.Int("kept", st.Kept),
		zap.Int("skipped", st.Skipped),
		zap.Int("ignored", st.Ignored))
	return records, st, nil
}

func newRecord(src config.SourceConfig, key string, size int64, modified time.Time) catalog.FileRecord {
	return catalog.FileRecord{
		S3URI:    "s3://" + src.Bucket + "/" + key,
		Date:     modified.Format("2006-01-02"),
		Time:     modified.Format("15:04:05"),
		Size:     strconv.FormatInt(size, 10),
		Path:     key,
		Metadata: ExtractMetadata(key, src.Name),
	}
}

// bucketLabel names the scanned buckets: the bucket itself when every
// source shares one, otherwise the distinct buckets joined by commas.
func bucketLabel(sources []config.SourceConfig) string {
	var buckets []string
	seen := make(map[string]bool)
	for _, s := range sources {
		if !seen[s.Bucket] {
			seen[s.Bucket] = true
			buckets = append(buckets, s.Bucket)
		}
	}
	return strings.Join(buckets, ",")
}

// Write encodes cat and stores it at location.
func Write(ctx context.Context, sink Putter, location string, cat *catalog.Catalog) error {
	var buf bytes.Buffer
	if err := catalog.Encode(&buf, cat); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := sink.Put(ctx, location, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	metrics.SetIndexLastSuccess(cat.LastUpdated.Time)
	logging.Info("catalog written",
		zap.String("location", location),
		zap.Int("files", cat.FileCount))
	return nil
}
