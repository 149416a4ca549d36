package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/siteport"
)

// manifestFile is the asset manifest filename inside the images
// directory.
const manifestFile = "manifest.json"

// Ensure AssetStore implements siteport.AssetStore at compile time.
var _ siteport.AssetStore = (*AssetStore)(nil)

// AssetStore persists downloaded images and the asset manifest in a
// single flat directory.
type AssetStore struct {
	dir string
}

// NewAssetStore creates an AssetStore rooted at dir, creating the
// directory if needed.
func NewAssetStore(dir string) (*AssetStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &AssetStore{dir: dir}, nil
}

// Dir returns the directory downloads are written to.
func (s *AssetStore) Dir() string {
	return s.dir
}

// Exists reports whether a local filename is already present. An
// existing file makes a re-run skip the download.
func (s *AssetStore) Exists(filename string) bool {
	info, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// SaveManifest writes the asset manifest JSON.
func (s *AssetStore) SaveManifest(ctx context.Context, m *siteport.AssetManifest) error {
	return writeJSONAtomic(filepath.Join(s.dir, manifestFile), m)
}

// LoadManifest reads the asset manifest. Returns ENOTFOUND if none
// exists.
func (s *AssetStore) LoadManifest(ctx context.Context) (*siteport.AssetManifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "no asset manifest in %s", s.dir)
		}
		return nil, err
	}
	var m siteport.AssetManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, siteport.Errorf(siteport.EINTERNAL, "corrupt asset manifest: %v", err)
	}
	return &m, nil
}
