package mock

import (
	"context"

	"github.com/fwojciec/siteport"
)

var _ siteport.CaptureStore = (*CaptureStore)(nil)

// CaptureStore is a mock implementation of siteport.CaptureStore.
type CaptureStore struct {
	SaveDocumentFn  func(ctx context.Context, doc *siteport.CapturedDocument) error
	SaveIndexFn     func(ctx context.Context, idx *siteport.CaptureIndex) error
	LoadDocumentsFn func(ctx context.Context) ([]*siteport.CapturedDocument, error)
	LoadIndexFn     func(ctx context.Context) (*siteport.CaptureIndex, error)
}

func (s *CaptureStore) SaveDocument(ctx context.Context, doc *siteport.CapturedDocument) error {
	return s.SaveDocumentFn(ctx, doc)
}

func (s *CaptureStore) SaveIndex(ctx context.Context, idx *siteport.CaptureIndex) error {
	return s.SaveIndexFn(ctx, idx)
}

func (s *CaptureStore) LoadDocuments(ctx context.Context) ([]*siteport.CapturedDocument, error) {
	return s.LoadDocumentsFn(ctx)
}

func (s *CaptureStore) LoadIndex(ctx context.Context) (*siteport.CaptureIndex, error) {
	return s.LoadIndexFn(ctx)
}

var _ siteport.AssetStore = (*AssetStore)(nil)

// AssetStore is a mock implementation of siteport.AssetStore.
type AssetStore struct {
	DirFn          func() string
	ExistsFn       func(filename string) bool
	SaveManifestFn func(ctx context.Context, m *siteport.AssetManifest) error
	LoadManifestFn func(ctx context.Context) (*siteport.AssetManifest, error)
}

func (s *AssetStore) Dir() string {
	return s.DirFn()
}

func (s *AssetStore) Exists(filename string) bool {
	return s.ExistsFn(filename)
}

func (s *AssetStore) SaveManifest(ctx context.Context, m *siteport.AssetManifest) error {
	return s.SaveManifestFn(ctx, m)
}

func (s *AssetStore) LoadManifest(ctx context.Context) (*siteport.AssetManifest, error) {
	return s.LoadManifestFn(ctx)
}

var _ siteport.CleanStore = (*CleanStore)(nil)

// CleanStore is a mock implementation of siteport.CleanStore.
type CleanStore struct {
	SaveDocumentFn  func(ctx context.Context, doc *siteport.SanitizedDocument) error
	LoadDocumentsFn func(ctx context.Context) ([]*siteport.SanitizedDocument, error)
}

func (s *CleanStore) SaveDocument(ctx context.Context, doc *siteport.SanitizedDocument) error {
	return s.SaveDocumentFn(ctx, doc)
}

func (s *CleanStore) LoadDocuments(ctx context.Context) ([]*siteport.SanitizedDocument, error) {
	return s.LoadDocumentsFn(ctx)
}
