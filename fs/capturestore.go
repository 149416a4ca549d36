package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/fwojciec/siteport"
)

// captureIndexFile is the capture index filename inside the capture
// directory.
const captureIndexFile = "capture_index.json"

// Ensure CaptureStore implements siteport.CaptureStore at compile time.
var _ siteport.CaptureStore = (*CaptureStore)(nil)

// CaptureStore persists captured documents as one HTML file per source
// key plus a JSON index carrying the per-key metadata.
type CaptureStore struct {
	dir string
}

// NewCaptureStore creates a CaptureStore rooted at dir.
func NewCaptureStore(dir string) *CaptureStore {
	return &CaptureStore{dir: dir}
}

// Dir returns the capture directory.
func (s *CaptureStore) Dir() string {
	return s.dir
}

func (s *CaptureStore) docPath(sourceKey string) string {
	return filepath.Join(s.dir, sourceKey+".html")
}

// SaveDocument writes the document's raw HTML. Same-key writes
// overwrite, which makes re-runs refresh stale captures in place.
func (s *CaptureStore) SaveDocument(ctx context.Context, doc *siteport.CapturedDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return writeFileAtomic(s.docPath(doc.SourceKey), []byte(doc.RawHTML))
}

// SaveIndex writes the capture index JSON.
func (s *CaptureStore) SaveIndex(ctx context.Context, idx *siteport.CaptureIndex) error {
	return writeJSONAtomic(filepath.Join(s.dir, captureIndexFile), idx)
}

// LoadIndex reads the capture index. Returns ENOTFOUND if no index
// exists yet.
func (s *CaptureStore) LoadIndex(ctx context.Context) (*siteport.CaptureIndex, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, captureIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "no capture index in %s", s.dir)
		}
		return nil, err
	}
	var idx siteport.CaptureIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, siteport.Errorf(siteport.EINTERNAL, "corrupt capture index: %v", err)
	}
	return &idx, nil
}

// LoadDocuments reads all captured documents back, sorted by source
// key. Document metadata comes from the index; the raw HTML is read
// from the per-key file.
func (s *CaptureStore) LoadDocuments(ctx context.Context) ([]*siteport.CapturedDocument, error) {
	idx, err := s.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(idx.Documents))
	for key := range idx.Documents {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	docs := make([]*siteport.CapturedDocument, 0, len(keys))
	for _, key := range keys {
		doc := idx.Documents[key]
		html, err := os.ReadFile(s.docPath(key))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, siteport.Errorf(siteport.ENOTFOUND, "indexed capture %q has no HTML file", key)
			}
			return nil, err
		}
		copied := *doc
		copied.RawHTML = string(html)
		docs = append(docs, &copied)
	}
	return docs, nil
}
