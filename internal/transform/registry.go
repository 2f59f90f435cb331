package transform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultEngine is the engine used when none is configured.
const DefaultEngine = "dft"

// ErrUnknownEngine is returned for names no engine is registered under.
var ErrUnknownEngine = errors.New("unknown transform engine")

// Factory creates and caches engines by name.
type Factory interface {
	// Create returns a fresh Engine. It fails for unknown names.
	Create(name string) (Engine, error)

	// Get returns the cached Engine for name, creating it on first use.
	Get(name string) (Engine, error)

	// List returns the registered names in sorted order.
	List() []string

	// Register adds or replaces an engine kind.
	Register(name string, creator func() coreEngine) error

	// GetAll returns every registered engine.
	GetAll() map[string]Engine
}

// DefaultFactory is the thread-safe Factory with the built-in engines.
type DefaultFactory struct {
	mu       sync.RWMutex
	creators map[string]func() coreEngine
	engines  map[string]Engine
}

// NewDefaultFactory returns a factory with "dft", "parallel" and "fft"
// registered.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators: make(map[string]func() coreEngine),
		engines:  make(map[string]Engine),
	}
	_ = f.Register("dft", func() coreEngine { return DFT{} })
	_ = f.Register("parallel", func() coreEngine { return Parallel{} })
	_ = f.Register("fft", func() coreEngine { return FFT{} })
	return f
}

// Register adds an engine kind. Replacing a name drops its cached engine.
func (f *DefaultFactory) Register(name string, creator func() coreEngine) error {
	if name == "" || creator == nil {
		return fmt.Errorf("transform: invalid registration for %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.engines, name)
	return nil
}

// Create returns a new, uncached Engine.
func (f *DefaultFactory) Create(name string) (Engine, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return newEngine(creator()), nil
}

// Get returns the cached Engine for name.
func (f *DefaultFactory) Get(name string) (Engine, error) {
	f.mu.RLock()
	if e, ok := f.engines[name]; ok {
		f.mu.RUnlock()
		return e, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.engines[name]; ok {
		return e, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	e := newEngine(creator())
	f.engines[name] = e
	return e, nil
}

// List returns the registered engine names, sorted.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll instantiates and returns every registered engine.
func (f *DefaultFactory) GetAll() map[string]Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, creator := range f.creators {
		if _, ok := f.engines[name]; !ok {
			f.engines[name] = newEngine(creator())
		}
	}
	out := make(map[string]Engine, len(f.engines))
	for name, e := range f.engines {
		out[name] = e
	}
	return out
}

// MustGet is Get for names known to be registered; it panics otherwise.
func (f *DefaultFactory) MustGet(name string) Engine {
	e, err := f.Get(name)
	if err != nil {
		panic(err)
	}
	return e
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}
