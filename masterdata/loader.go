package masterdata

import "sync"

// Loader reads a masterdata file once and hands out the cached document.
type Loader struct {
	mu     sync.Mutex
	path   string
	cached *Masterdata
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the cached document, reading the file on first use.
func (l *Loader) Load() (*Masterdata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil {
		return l.cached, nil
	}
	md, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.cached = md
	return md, nil
}

// Reload drops the cache and reads the file again.
func (l *Loader) Reload() (*Masterdata, error) {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
	return l.Load()
}

// Cached returns the loaded document without touching the disk, or nil when
// nothing has been loaded yet.
func (l *Loader) Cached() *Masterdata {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cached
}
