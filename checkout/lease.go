package checkout

import (
	"path/filepath"
	"sync"
)

// Lease is an exclusive in-process claim on a working-copy path, held from
// checkout through artifact write so two versions never interleave their
// mutations of the same tree. Release is idempotent.
type Lease struct {
	path    string
	release func()
	once    sync.Once
}

var (
	leaseMu sync.Mutex
	leases  = make(map[string]*sync.Mutex)
)

// Acquire takes the exclusive lease for a working-copy path, blocking until
// any current holder releases it. Paths are compared after Clean; symlinked
// aliases of the same tree are not detected.
func Acquire(path string) *Lease {
	key := filepath.Clean(path)

	leaseMu.Lock()
	m, ok := leases[key]
	if !ok {
		m = &sync.Mutex{}
		leases[key] = m
	}
	leaseMu.Unlock()

	m.Lock()
	return &Lease{path: key, release: m.Unlock}
}

// Path returns the cleaned working-copy path this lease covers.
func (l *Lease) Path() string { return l.path }

// Release gives up the lease. Safe to call multiple times; callers defer it
// so the lease is dropped on every exit path, including failures.
func (l *Lease) Release() {
	l.once.Do(l.release)
}
