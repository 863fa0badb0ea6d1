package rewind

// Scope provides a defer-friendly way to bracket a group.
// Usage:
//
//	func complexEdit(m *rewind.Manager) {
//	    defer m.GroupScope("Complex Edit").End()
//	    // ... multiple registrations ...
//	}
type Scope struct {
	mgr    *Manager
	active bool
}

// GroupScope opens a group, names it when name is non-empty, and returns
// a Scope whose End closes it.
func (m *Manager) GroupScope(name string) *Scope {
	m.BeginGroup()
	if name != "" {
		m.SetActionName(name)
	}
	return &Scope{mgr: m, active: true}
}

// End closes the scope's group. Safe to call more than once; only the
// first call has effect.
func (s *Scope) End() {
	if s.active {
		s.active = false
		s.mgr.EndGroup()
	}
}

// Grouped runs fn inside its own group. When name is non-empty the group
// is named before fn runs, so fn's registrations may still rename it.
func (m *Manager) Grouped(name string, fn func()) {
	scope := m.GroupScope(name)
	defer scope.End()
	fn()
}
