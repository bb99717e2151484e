// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"github.com/modhost/modhost/pkg/modabi"
)

// Record converts m into its ABI form.
func (m *LoadedModule) Record() modabi.Record {
	return modabi.Record{
		Info:   modabi.NewModInfo(m.ID, m.VersionString(), m.VersionLong),
		Path:   m.Path(),
		Handle: m.Handle.Raw(),
	}
}

// LoadedResults marshals QueryLoaded into alloc.
func (r *Registry) LoadedResults(alloc modabi.Allocator) (modabi.ModResults, error) {
	return marshalAll(alloc, r.QueryLoaded())
}

// AllResults marshals QueryAll into alloc.
func (r *Registry) AllResults(alloc modabi.Allocator) (modabi.ModResults, error) {
	return marshalAll(alloc, r.QueryAll())
}

// FindResult marshals Find into alloc. No match yields the empty sentinel.
func (r *Registry) FindResult(alloc modabi.Allocator, q Query, mt MatchType) (modabi.ModResult, error) {
	m, ok := r.Find(q, mt)
	if !ok {
		return modabi.ModResult{}, nil
	}
	rec := m.Record()
	return modabi.MarshalOne(alloc, &rec)
}

// FreeResults releases an array returned by LoadedResults or AllResults
// and resets it to the empty sentinel.
func (r *Registry) FreeResults(alloc modabi.Allocator, res *modabi.ModResults) {
	modabi.Free(alloc, res)
}

func marshalAll(alloc modabi.Allocator, mods []LoadedModule) (modabi.ModResults, error) {
	recs := make([]modabi.Record, len(mods))
	for i := range mods {
		recs[i] = mods[i].Record()
	}
	return modabi.Marshal(alloc, recs)
}
