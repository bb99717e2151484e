// SPDX-License-Identifier: MPL-2.0

package depsort

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modhost/modhost/internal/dag"
	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/pkg/platform"
	"github.com/modhost/modhost/pkg/types"
)

// ErrCircularDependency is the sentinel wrapped by CircularDependencyError.
var ErrCircularDependency = errors.New("circular dependency detected")

// ErrMissingDependency is the sentinel wrapped by MissingDependencyError.
var ErrMissingDependency = errors.New("missing dependency")

type (
	// Sorter computes load orders for one platform family.
	Sorter struct {
		logger    logging.Logger
		allowList []string
	}

	// Option customizes a Sorter.
	Option func(*Sorter)

	// Plan is the outcome of resolving a descriptor set.
	Plan struct {
		// Order holds every input descriptor exactly once.
		Order []*descriptor.Descriptor
		// Unresolved holds the descriptors Kahn's algorithm could not place,
		// in input order. They are also the tail of Order.
		Unresolved []*descriptor.Descriptor
	}

	// MissingDependencyError names an import that is neither in the working
	// set nor a recognized system library.
	MissingDependencyError struct {
		Module     string
		Dependency string
	}

	// CircularDependencyError lists the modules that could not be ordered:
	// cycle members plus anything that depends on them.
	CircularDependencyError struct {
		Modules []string
	}
)

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s depends on %s, which is not present", e.Module, e.Dependency)
}

// Unwrap returns ErrMissingDependency for errors.Is() compatibility.
func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s among %s", ErrCircularDependency, strings.Join(e.Modules, ", "))
}

// Unwrap returns ErrCircularDependency for errors.Is() compatibility.
func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// Cyclic reports whether the plan fell back to best-effort ordering.
func (p Plan) Cyclic() bool { return len(p.Unresolved) > 0 }

// WithLogger sets the sink for the cycle warning.
func WithLogger(l logging.Logger) Option {
	return func(s *Sorter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSystemLibraries extends the allow-list used by Validate.
func WithSystemLibraries(names ...string) Option {
	return func(s *Sorter) {
		for _, n := range names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				s.allowList = append(s.allowList, n)
			}
		}
	}
}

// New creates a Sorter using the system-library allow-list of family.
func New(family platform.Family, opts ...Option) *Sorter {
	s := &Sorter{
		logger:    logging.Discard(),
		allowList: SystemLibraries(family),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Order returns descs arranged so dependencies precede their dependents.
// It never fails; on a cycle the unresolved remainder is appended in input
// order and a warning is logged.
func (s *Sorter) Order(descs []*descriptor.Descriptor) []*descriptor.Descriptor {
	plan := s.Resolve(descs)
	if plan.Cyclic() {
		names := make([]string, len(plan.Unresolved))
		for i, d := range plan.Unresolved {
			names[i] = d.Name()
		}
		s.logger.Warn("dependency cycle detected, falling back to best-effort load order",
			"unresolved", strings.Join(names, ", "))
	}
	return plan.Order
}

// Resolve computes the load order without logging.
//
// Edges run from a dependent to each in-set dependency, so Kahn's algorithm
// emits dependents first. The emitted prefix is reversed to put dependencies
// first, then the unresolved nodes follow.
func (s *Sorter) Resolve(descs []*descriptor.Descriptor) Plan {
	if len(descs) == 0 {
		return Plan{Order: []*descriptor.Descriptor{}}
	}

	sorted, remainder := graph(descs).PartialSort()
	slices.Reverse(sorted)

	plan := Plan{Order: make([]*descriptor.Descriptor, 0, len(descs))}
	for _, i := range sorted {
		plan.Order = append(plan.Order, descs[i])
	}
	for _, i := range remainder {
		d := descs[i]
		plan.Order = append(plan.Order, d)
		plan.Unresolved = append(plan.Unresolved, d)
	}
	return plan
}

// Validate reports every import that is neither in-set nor a system library,
// plus one CircularDependencyError if the set cannot be fully ordered.
// Descriptors whose scan failed contribute no findings.
func (s *Sorter) Validate(descs []*descriptor.Descriptor) (bool, []error) {
	index := indexByKey(descs)

	var errs []error
	for _, d := range descs {
		for _, dep := range d.Dependencies() {
			if _, ok := index[types.LibraryName(dep).Normalized()]; ok {
				continue
			}
			if isSystemLibrary(dep, s.allowList) {
				continue
			}
			errs = append(errs, &MissingDependencyError{Module: d.Name(), Dependency: dep})
		}
	}
	if _, err := graph(descs).TopologicalSort(); err != nil {
		var cycle *dag.CycleError[int]
		if errors.As(err, &cycle) {
			mods := make([]string, len(cycle.Cycle))
			for k, i := range cycle.Cycle {
				mods[k] = descs[i].Name()
			}
			err = &CircularDependencyError{Modules: mods}
		}
		errs = append(errs, err)
	}
	return len(errs) == 0, errs
}

// indexByKey maps each normalized module name to its first position.
func indexByKey(descs []*descriptor.Descriptor) map[string]int {
	index := make(map[string]int, len(descs))
	for i, d := range descs {
		if _, seen := index[d.Key()]; !seen {
			index[d.Key()] = i
		}
	}
	return index
}

// graph has one node per descriptor index and an edge from each dependent
// to every in-set dependency other than itself.
func graph(descs []*descriptor.Descriptor) *dag.Graph[int] {
	index := indexByKey(descs)
	g := dag.New[int]()
	for i := range descs {
		g.AddNode(i)
	}
	for i, d := range descs {
		for _, dep := range d.Dependencies() {
			j, ok := index[types.LibraryName(dep).Normalized()]
			if !ok || j == i {
				continue
			}
			g.AddEdge(i, j)
		}
	}
	return g
}
