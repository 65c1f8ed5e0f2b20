package identity

import "sort"

// Collision records two sources that resolved to the same destination.
// The later source (in traversal order) wins.
type Collision struct {
	Dest     string
	Previous string
	Winner   string
}

// Mapping is the one-to-one relation from source document path to
// destination document path. Paths are slash-separated and relative to
// their respective roots.
type Mapping struct {
	order      []string
	dest       map[string]string
	owner      map[string]string
	collisions []Collision
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{
		dest:  make(map[string]string),
		owner: make(map[string]string),
	}
}

// BuildMapping records a destination for every source path. Paths are
// visited in lexical order so collisions resolve the same way every run.
func BuildMapping(sources []string) *Mapping {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	m := NewMapping()
	for _, src := range sorted {
		m.Set(src, DestPath(src))
	}
	return m
}

// Set records src -> dst. Re-setting a source keeps its position.
func (m *Mapping) Set(src, dst string) {
	if prev, ok := m.dest[src]; ok {
		if m.owner[prev] == src {
			delete(m.owner, prev)
		}
	} else {
		m.order = append(m.order, src)
	}
	if other, ok := m.owner[dst]; ok && other != src {
		m.collisions = append(m.collisions, Collision{Dest: dst, Previous: other, Winner: src})
	}
	m.dest[src] = dst
	m.owner[dst] = src
}

// Lookup returns the destination for src.
func (m *Mapping) Lookup(src string) (string, bool) {
	dst, ok := m.dest[src]
	return dst, ok
}

// Owner returns the source currently writing to dst.
func (m *Mapping) Owner(dst string) (string, bool) {
	src, ok := m.owner[dst]
	return src, ok
}

// Delete drops src from the mapping.
func (m *Mapping) Delete(src string) {
	dst, ok := m.dest[src]
	if !ok {
		return
	}
	delete(m.dest, src)
	if m.owner[dst] == src {
		delete(m.owner, dst)
	}
	for i, s := range m.order {
		if s == src {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of sources.
func (m *Mapping) Len() int { return len(m.order) }

// Sources returns source paths in insertion order.
func (m *Mapping) Sources() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Collisions returns every destination clash seen so far.
func (m *Mapping) Collisions() []Collision {
	out := make([]Collision, len(m.collisions))
	copy(out, m.collisions)
	return out
}
