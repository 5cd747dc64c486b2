package ics

// Registry remembers every identifier assigned during one run so that
// identifiers stay unique across documents. Callers own one Registry per
// run and pass it to each Fixup call; it only ever grows.
type Registry struct {
	seen map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

func (r *Registry) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.seen[id]
	return ok
}

func (r *Registry) Add(id string) {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	r.seen[id] = struct{}{}
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.seen)
}

