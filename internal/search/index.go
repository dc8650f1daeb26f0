package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// mappingVersion is bumped whenever the document mapping changes. A disk
// index written under another version is dropped and rebuilt on open; the
// catalog re-populates it on the next scan.
const mappingVersion = "1"

// indexBatchSize bounds one bleve batch during bulk indexing.
const indexBatchSize = 500

// SearchIndex is the bleve index over the sound inventory: system library
// sounds and custom pack clips in one document set.
//
// All methods are safe for concurrent use. The RWMutex serializes Rebuild
// against in-flight queries and writes.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (stderr if nil)
}

// NewSearchIndex opens the index under DataPath, creating it when absent.
// A version marker written next to the index detects mapping changes; a
// stale or unreadable index is removed and recreated empty.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	index, err := openCurrent(indexPath, versionPath, logger)
	if err != nil {
		return nil, err
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if werr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); werr != nil {
			logger.Warn("failed to write search version file", "error", werr)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// openCurrent returns the existing index when it is present, readable and
// written under the current mapping version. It returns nil after removing
// the directory when a rebuild is called for; the error is non-nil only
// when a stale index cannot be removed.
func openCurrent(indexPath, versionPath string, logger *slog.Logger) (bleve.Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		// Nothing on disk yet.
		return nil, nil
	}

	version, err := os.ReadFile(versionPath)
	switch {
	case err != nil:
		logger.Info("search index has no version marker, rebuilding",
			"new_version", mappingVersion)
	case string(version) != mappingVersion:
		logger.Info("search index mapping changed, rebuilding",
			"old_version", string(version),
			"new_version", mappingVersion)
	default:
		index, openErr := bleve.Open(indexPath)
		if openErr == nil {
			return index, nil
		}
		logger.Warn("failed to open search index, recreating",
			"path", indexPath,
			"error", openErr)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	return nil, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocuments indexes documents in batches. Documents are fed to bleve
// as lowercase-keyed maps so field names line up with the mapping.
func (s *SearchIndex) IndexDocuments(docs []*SoundDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for start := 0; start < len(docs); start += indexBatchSize {
		end := min(start+indexBatchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[start:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Reindex replaces the entire index contents with the given documents.
// Sound inventories are small, so every catalog rescan drops the index
// and rebuilds it from scratch rather than diffing.
func (s *SearchIndex) Reindex(docs []*SoundDocument) error {
	if err := s.Rebuild(); err != nil {
		return err
	}
	if err := s.IndexDocuments(docs); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	s.logger.Debug("reindexed sound inventory", "documents", len(docs))
	return nil
}

// Rebuild drops the index and creates an empty one under the current
// mapping. It takes the exclusive lock, so queries block until it returns.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
