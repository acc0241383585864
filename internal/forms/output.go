package forms

import (
	"fmt"
	"strings"
	"sync"
)

// OutputName validates a submitted value used to name the output file. Names
// that could escape the output directory are rejected.
func OutputName(value string) (string, error) {
	name := strings.TrimSpace(value)
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputName, value)
	case strings.ContainsAny(name, `/\:`+"\x00"):
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputName, value)
	}
	return name, nil
}

// pathLocks serializes work on the same output name.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// Lock blocks until name is free and returns its unlock function.
func (p *pathLocks) Lock(name string) func() {
	p.mu.Lock()
	l, ok := p.locks[name]
	if !ok {
		l = &pathLock{}
		p.locks[name] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, name)
		}
		p.mu.Unlock()
	}
}
