package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/siteport"
)

// Ensure CleanStore implements siteport.CleanStore at compile time.
var _ siteport.CleanStore = (*CleanStore)(nil)

// CleanStore persists sanitized documents. Each document becomes a
// .html file named after its source key, mirroring the capture store,
// plus a .json sidecar with the kind and removal counts.
type CleanStore struct {
	dir string
}

// NewCleanStore creates a CleanStore rooted at dir.
func NewCleanStore(dir string) *CleanStore {
	return &CleanStore{dir: dir}
}

// Dir returns the clean directory.
func (s *CleanStore) Dir() string {
	return s.dir
}

// SaveDocument writes the sanitized HTML and its metadata sidecar.
func (s *CleanStore) SaveDocument(ctx context.Context, doc *siteport.SanitizedDocument) error {
	if doc.SourceKey == "" {
		return siteport.Errorf(siteport.EINVALID, "sanitized document source key required")
	}
	base := filepath.Join(s.dir, doc.SourceKey)
	if err := writeFileAtomic(base+".html", []byte(doc.CleanHTML)); err != nil {
		return err
	}
	return writeJSONAtomic(base+".json", doc)
}

// LoadDocuments reads all sanitized documents sorted by source key.
// Export record order follows this ordering.
func (s *CleanStore) LoadDocuments(ctx context.Context) ([]*siteport.SanitizedDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "no sanitized documents in %s", s.dir)
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)

	docs := make([]*siteport.SanitizedDocument, 0, len(keys))
	for _, key := range keys {
		base := filepath.Join(s.dir, key)
		meta, err := os.ReadFile(base + ".json")
		if err != nil {
			return nil, err
		}
		var doc siteport.SanitizedDocument
		if err := json.Unmarshal(meta, &doc); err != nil {
			return nil, siteport.Errorf(siteport.EINTERNAL, "corrupt sidecar for %q: %v", key, err)
		}
		html, err := os.ReadFile(base + ".html")
		if err != nil {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "sidecar %q has no HTML file", key)
		}
		doc.CleanHTML = string(html)
		docs = append(docs, &doc)
	}
	return docs, nil
}
