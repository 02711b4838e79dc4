package lang

import (
	"iter"
	"slices"

	"github.com/ardnew/typeline/lang/token"
)

// Scope is one immutable frame of a lexical environment. Lookups that miss
// in a frame fall through to its parent.
//
// Scopes are never modified once published: [Scope.Define] returns a new
// child frame and leaves the receiver untouched. A closure keeps the frame
// that was current at its definition, so later definitions are invisible to
// it. The nil *Scope is an empty environment.
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
	depth    int
}

// NewScope returns a root frame holding bindings.
func NewScope(bindings ...*Binding) *Scope {
	s := &Scope{bindings: make(map[string]*Binding, len(bindings))}

	for _, b := range bindings {
		s.bindings[b.Name] = b
	}

	return s
}

// Define returns a new frame, child of s, that binds name to v.
func (s *Scope) Define(name string, v *Value, pos token.Position) *Scope {
	return &Scope{
		parent: s,
		bindings: map[string]*Binding{
			name: {Name: name, Value: v, Pos: pos},
		},
		depth: s.Depth() + 1,
	}
}

// Enter returns a new empty frame, child of s, that marks the start of a
// block.
func (s *Scope) Enter() *Scope {
	return &Scope{parent: s, depth: s.Depth() + 1}
}

// Parent returns the enclosing frame, or nil for a root frame.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}

	return s.parent
}

// Depth returns the number of frames above s.
func (s *Scope) Depth() int {
	if s == nil {
		return -1
	}

	return s.depth
}

// Lookup finds the nearest binding of name by walking the parent chain.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for f := s; f != nil; f = f.parent {
		if b, ok := f.bindings[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// All returns an iterator over the bindings visible from s, nearest first.
// Shadowed bindings are skipped.
func (s *Scope) All() iter.Seq[*Binding] {
	return func(yield func(*Binding) bool) {
		seen := make(map[string]bool)

		for f := s; f != nil; f = f.parent {
			// Root frames may hold many bindings; keep the order stable.
			names := make([]string, 0, len(f.bindings))
			for name := range f.bindings {
				names = append(names, name)
			}

			slices.Sort(names)

			for _, name := range names {
				if seen[name] {
					continue
				}

				seen[name] = true

				if !yield(f.bindings[name]) {
					return
				}
			}
		}
	}
}

// Names returns the sorted names visible from s.
func (s *Scope) Names() []string {
	var names []string

	for b := range s.All() {
		names = append(names, b.Name)
	}

	slices.Sort(names)

	return names
}
