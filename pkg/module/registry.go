package module

// Registry maps module kind tags to their implementations. The engine holds
// one Registry and dispatches every Input/Output/ConsensusItem to the
// module named in its Module field.
type Registry struct {
	modules map[string]Module
}

// NewRegistry builds a Registry from a set of modules, keyed by their own
// Kind().
func NewRegistry(mods ...Module) *Registry {
	r := &Registry{modules: make(map[string]Module, len(mods))}
	for _, m := range mods {
		r.modules[m.Kind()] = m
	}
	return r
}

// Get returns the module registered for kind, or ErrUnknownModule.
func (r *Registry) Get(kind string) (Module, error) {
	m, ok := r.modules[kind]
	if !ok {
		return nil, ErrUnknownModule
	}
	return m, nil
}

// All returns every registered module, in no particular order.
func (r *Registry) All() []Module {
	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}

// Kinds returns every registered module kind tag.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.modules))
	for k := range r.modules {
		out = append(out, k)
	}
	return out
}
