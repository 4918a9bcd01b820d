package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docqa/internal/domain"
)

// Loader extracts the ordered pages of one document.
type Loader interface {
	Load(path string) ([]domain.Page, error)
}

// Format describes a document type the registry can load.
type Format struct {
	Name       string
	Extensions []string // without dot
	// Magic is the leading byte signature a file must carry.
	Magic  []byte
	Loader Loader
}

// Registry maps file extensions to document formats.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]*Format // extension (without dot) → format
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]*Format)}
}

// Default returns a registry with the PDF and Word loaders.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&Format{
		Name:       "pdf",
		Extensions: []string{"pdf"},
		Magic:      []byte("%PDF-"),
		Loader:     PDFLoader{},
	})
	r.Register(&Format{
		Name:       "docx",
		Extensions: []string{"docx"},
		Magic:      []byte("PK\x03\x04"),
		Loader:     DocxLoader{},
	})
	return r
}

// Register adds a format under each of its extensions.
func (r *Registry) Register(f *Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range f.Extensions {
		r.formats[strings.ToLower(ext)] = f
	}
}

// Lookup returns the format for a path based on its extension, or nil.
func (r *Registry) Lookup(path string) *Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formats[ext]
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.formats))
	for ext := range r.formats {
		exts[ext] = true
	}
	return exts
}

// Load checks that path exists and carries a registered format, then
// extracts its pages. Every page's Source is set to path.
func (r *Registry) Load(path string) ([]domain.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrNotFound, path)
	}

	f := r.Lookup(path)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := checkMagic(path, f.Magic); err != nil {
		return nil, fmt.Errorf("%w: %s is not a %s file", err, path, f.Name)
	}

	pages, err := f.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].Source = path
	}
	return pages, nil
}

func checkMagic(path string, magic []byte) error {
	if len(magic) == 0 {
		return nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	defer fh.Close()

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(fh, head); err != nil || !bytes.Equal(head, magic) {
		return domain.ErrUnsupportedFormat
	}
	return nil
}
