package scene

// Registry owns the active scenes, keyed by name. It replaces a process-wide
// map: whoever runs the frame loop holds the Registry and inserts or removes
// scenes as they start and finish.
type Registry struct {
	scenes map[string]Scene
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{scenes: make(map[string]Scene)}
}

// Insert adds s, replacing any scene with the same name.
func (r *Registry) Insert(s Scene) {
	name := s.Name()
	if _, ok := r.scenes[name]; !ok {
		r.order = append(r.order, name)
	}
	r.scenes[name] = s
}

// Remove drops the named scene and reports whether it was present.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.scenes[name]; !ok {
		return false
	}
	delete(r.scenes, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(name string) (Scene, bool) {
	s, ok := r.scenes[name]
	return s, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Names lists scenes in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Frame runs OnFrame on every running scene, in insertion order.
func (r *Registry) Frame() {
	for _, name := range r.order {
		if s := r.scenes[name]; s.IsRunning() {
			s.OnFrame()
		}
	}
}
