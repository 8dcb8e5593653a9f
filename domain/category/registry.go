package category

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/helixml/textclassifier/domain/search"
)

// snapshot is an immutable view of the registry. A published snapshot is
// never modified; writers build a new one and swap it in.
type snapshot struct {
	categories []Category
	index      map[string]int
}

func (s *snapshot) lookup(name string) (Category, bool) {
	i, ok := s.index[name]
	if !ok {
		return Category{}, false
	}
	return s.categories[i], true
}

// Registry holds the ordered set of categories. Reads are lock-free and see
// a consistent snapshot; writes are serialized.
type Registry struct {
	mu        sync.Mutex
	current   atomic.Pointer[snapshot]
	dimension atomic.Int64
}

// NewRegistry creates an empty Registry whose categories must all have the
// given embedding dimension. A dimension of zero is fixed by the first Add.
func NewRegistry(dimension int) *Registry {
	r := &Registry{}
	r.dimension.Store(int64(dimension))
	r.current.Store(&snapshot{index: map[string]int{}})
	return r
}

// Dimension returns the embedding dimension every category shares.
func (r *Registry) Dimension() int { return int(r.dimension.Load()) }

// All returns the categories in insertion order.
func (r *Registry) All() []Category {
	snap := r.current.Load()
	out := make([]Category, len(snap.categories))
	copy(out, snap.categories)
	return out
}

// Len returns the number of registered categories.
func (r *Registry) Len() int { return len(r.current.Load().categories) }

// Exists reports whether a category with the given name is registered.
// The comparison is case-insensitive.
func (r *Registry) Exists(name string) bool {
	_, ok := r.current.Load().lookup(NormalizeName(name))
	return ok
}

// Get returns the category with the given name.
func (r *Registry) Get(name string) (Category, error) {
	normalized := NormalizeName(name)
	c, ok := r.current.Load().lookup(normalized)
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrNotFound, normalized)
	}
	return c, nil
}

// Add inserts a category, or overwrites the existing one with the same
// normalized name in place. It reports whether a new category was created.
func (r *Registry) Add(name, description string, embedding []float64) (bool, error) {
	c, err := NewCategory(name, description, embedding)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dim := r.Dimension()
	if dim == 0 {
		r.dimension.Store(int64(c.Dimension()))
	} else if c.Dimension() != dim {
		return false, fmt.Errorf("%w: category %q has dimension %d, expected %d", search.ErrEmbeddingFailure, c.Name(), c.Dimension(), dim)
	}

	old := r.current.Load()
	next := &snapshot{
		categories: make([]Category, len(old.categories), len(old.categories)+1),
		index:      make(map[string]int, len(old.index)+1),
	}
	copy(next.categories, old.categories)
	for k, v := range old.index {
		next.index[k] = v
	}

	i, exists := next.index[c.Name()]
	if exists {
		next.categories[i] = c
	} else {
		next.index[c.Name()] = len(next.categories)
		next.categories = append(next.categories, c)
	}

	r.current.Store(next)
	return !exists, nil
}

// Remove deletes the named categories and reports, keyed by each name as
// given, whether it was present. Names are matched after normalization. If the removal would leave the registry empty,
// nothing is removed and ErrInvariantViolation is returned.
func (r *Registry) Remove(names []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.current.Load()
	results := make(map[string]bool, len(names))
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		normalized := NormalizeName(name)
		_, ok := old.index[normalized]
		results[name] = ok
		if ok {
			drop[normalized] = struct{}{}
		}
	}

	if len(drop) == 0 {
		return results, nil
	}
	if len(drop) >= len(old.categories) {
		return nil, fmt.Errorf("%w: removing %d categories would leave the registry empty", ErrInvariantViolation, len(drop))
	}

	next := &snapshot{
		categories: make([]Category, 0, len(old.categories)-len(drop)),
		index:      make(map[string]int, len(old.categories)-len(drop)),
	}
	for _, c := range old.categories {
		if _, ok := drop[c.Name()]; ok {
			continue
		}
		next.index[c.Name()] = len(next.categories)
		next.categories = append(next.categories, c)
	}

	r.current.Store(next)
	return results, nil
}
