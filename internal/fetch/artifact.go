package fetch

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Artifact is the local audio for one source. Path is the file the next
// stage should read; owned files are removed by Cleanup.
type Artifact struct {
	Path string

	mu    sync.Mutex
	owned []string
}

// Own registers a file the run created so Cleanup removes it.
func (a *Artifact) Own(path string) {
	a.mu.Lock()
	a.owned = append(a.owned, path)
	a.mu.Unlock()
}

// Cleanup removes every owned file. Safe to call more than once.
func (a *Artifact) Cleanup() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	owned := a.owned
	a.owned = nil
	a.mu.Unlock()

	var errs []error
	for _, p := range owned {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
