package movement

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// localityProbeFrames is how many frames Register evaluates to verify a
// primitive stays within its declared joints.
const localityProbeFrames = 120

// Library is a name-indexed table of primitives bound to one skeleton.
// It is populated at startup and read concurrently afterwards.
type Library struct {
	mu         sync.RWMutex
	def        *skeleton.Definition
	primitives map[string]Primitive
}

// NewLibrary creates an empty library for def.
func NewLibrary(def *skeleton.Definition) *Library {
	return &Library{
		def:        def,
		primitives: make(map[string]Primitive),
	}
}

// NewBuiltinLibrary returns a library holding every built-in primitive.
func NewBuiltinLibrary(def *skeleton.Definition) (*Library, error) {
	lib := NewLibrary(def)
	for _, p := range Builtin() {
		if err := lib.Register(p); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Skeleton returns the definition the library was built for.
func (l *Library) Skeleton() *skeleton.Definition {
	return l.def
}

// Register validates p and adds it, replacing any primitive of the same name.
func (l *Library) Register(p Primitive) error {
	if p.Name == "" || p.Apply == nil {
		return fmt.Errorf("%w: name=%q", ErrInvalidPrimitive, p.Name)
	}
	if !p.Whole && p.Joints == 0 {
		return fmt.Errorf("%w: %s declares no joints", ErrInvalidPrimitive, p.Name)
	}
	if err := CheckLocality(l.def, p, ReferenceParams(), localityProbeFrames); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.primitives[p.Name] = p
	return nil
}

// Get retrieves a primitive by name.
func (l *Library) Get(name string) (Primitive, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.primitives[name]
	if !ok {
		return Primitive{}, fmt.Errorf("%w: %s", ErrPrimitiveNotFound, name)
	}
	return p, nil
}

// Lookup resolves several names at once, failing on the first unknown one.
func (l *Library) Lookup(names ...string) ([]Primitive, error) {
	out := make([]Primitive, 0, len(names))
	for _, name := range names {
		p, err := l.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// List returns all registered names, sorted.
func (l *Library) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.primitives))
	for name := range l.primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered primitives.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.primitives)
}
