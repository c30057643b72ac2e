package indexer

import (
	"regexp"
	"strings"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
)

var (
	// Experiment folders look like 50006A-TUQ97N-EA_2025-02-04-0920.
	experimentRe = regexp.MustCompile(`^(\w+)-(\w+)-\w+_`)
	dateRe       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	zarrRe       = regexp.MustCompile(`\.zarr/`)
)

// ExtractMetadata derives record metadata from an object key. The project
// is the second path segment; the last experiment folder in the key gives
// the run id, block id, panel and created date.
func ExtractMetadata(key, sourceType string) *catalog.Metadata {
	m := &catalog.Metadata{SourceType: sourceType}
	parts := strings.Split(key, "/")
	if len(parts) >= 2 {
		m.Project = parts[1]
	}
	for _, part := range parts {
		match := experimentRe.FindStringSubmatch(part)
		if match == nil {
			continue
		}
		m.RunID = part
		m.BRPID = match[1]
		m.Panel = match[2]
		m.CreatedDate = dateRe.FindString(part)
	}
	return m
}

// inZarr reports whether key lies inside a .zarr directory.
func inZarr(key string) bool {
	return zarrRe.MatchString(key)
}
