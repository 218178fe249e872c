// Package registry holds the commands the interpreter knows by name.
package registry

import (
	"fmt"
	"io"

	"github.com/jboxsh/jbox/core/vos"
)

// DefaultCapacity is the number of descriptors a registry accepts when no
// capacity is configured.
const DefaultCapacity = 128

// Kind tells the executor how a command runs.
type Kind int

const (
	// Builtin commands run inside the interpreter and share its state.
	Builtin Kind = iota
	// External commands run as a separate process image.
	External
)

func (k Kind) String() string {
	switch k {
	case Builtin:
		return "builtin"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor describes one command.
type Descriptor struct {
	// Name the command is invoked by, case-sensitive.
	Name string
	// Summary is a one line description shown in listings.
	Summary string
	// LongHelp is shown by `help NAME`.
	LongHelp string
	Kind     Kind
	// Run is the command entry point.
	Run vos.ProcessFunc
	// PrintUsage writes usage information, it may be nil.
	PrintUsage func(w io.Writer)
}

// Registry is an append-only, ordered set of descriptors. Registration
// happens once at startup; lookups after that are safe from any goroutine as
// long as nothing else is registered.
type Registry struct {
	capacity int
	dropped  int

	order  []*Descriptor
	byName map[string]*Descriptor
}

// New creates a registry that accepts up to capacity descriptors, a
// non-positive capacity means DefaultCapacity.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Registry{
		capacity: capacity,
		byName:   make(map[string]*Descriptor),
	}
}

// Register adds a copy of desc. Nil descriptors are ignored. Once the
// registry is full further registrations are dropped without an error, see
// Dropped.
//
// Duplicate names take a slot but Find keeps returning the first one.
func (r *Registry) Register(desc *Descriptor) {
	if desc == nil {
		return
	}
	if len(r.order) >= r.capacity {
		r.dropped++
		return
	}

	stored := *desc
	r.order = append(r.order, &stored)
	if _, exists := r.byName[stored.Name]; !exists {
		r.byName[stored.Name] = &stored
	}
}

// Find returns the first descriptor registered under name.
func (r *Registry) Find(name string) (Descriptor, bool) {
	desc, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return *desc, true
}

// ForEach visits every descriptor in registration order.
func (r *Registry) ForEach(visit func(Descriptor)) {
	for _, desc := range r.order {
		visit(*desc)
	}
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.order)
}

// Cap returns the maximum number of descriptors.
func (r *Registry) Cap() int {
	return r.capacity
}

// Dropped returns how many registrations were discarded because the registry
// was full.
func (r *Registry) Dropped() int {
	return r.dropped
}
