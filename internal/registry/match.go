// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/modhost/modhost/internal/semver"
	"github.com/modhost/modhost/pkg/modabi"
)

// Match types, numbered as in the C ABI.
const (
	// MatchIDOnly compares the id alone.
	MatchIDOnly MatchType = iota
	// MatchIDVersion compares the id and the parsed semantic version.
	MatchIDVersion
	// MatchIDVersionLong compares the id and the packed version integer.
	MatchIDVersionLong
	// MatchObjectName compares the query id with the filename-derived name.
	MatchObjectName
	// MatchStrict compares id, semantic version and packed version.
	MatchStrict
)

// Require statuses, numbered as in the C ABI.
const (
	StatusLoaded Status = iota
	StatusNotFound
)

type (
	// MatchType selects which fields of a Query must equal a module's.
	MatchType int32

	// Status is the answer to RequireMod.
	Status int32

	// Query is a partially filled identity used to look up modules.
	Query struct {
		ID          string
		Version     string
		VersionLong uint64
	}
)

// QueryFromInfo reads a query out of an ABI record.
func QueryFromInfo(info *modabi.ModInfo) Query {
	return Query{ID: info.IDString(), Version: info.VersionString(), VersionLong: info.VersionLong}
}

// String returns the match type name.
func (mt MatchType) String() string {
	switch mt {
	case MatchIDOnly:
		return "id-only"
	case MatchIDVersion:
		return "id-version"
	case MatchIDVersionLong:
		return "id-version-long"
	case MatchObjectName:
		return "object-name"
	case MatchStrict:
		return "strict"
	default:
		return fmt.Sprintf("MatchType(%d)", int32(mt))
	}
}

// Valid reports whether mt is a known match type.
func (mt MatchType) Valid() bool { return mt >= MatchIDOnly && mt <= MatchStrict }

// String returns the status name.
func (s Status) String() string {
	if s == StatusLoaded {
		return "loaded"
	}
	return "not-found"
}

// Matches reports whether m satisfies q under mt. Unknown match types never
// match. A version that does not parse on either side never matches.
func (q Query) Matches(m *LoadedModule, mt MatchType) bool {
	switch mt {
	case MatchIDOnly:
		return q.ID == m.ID
	case MatchIDVersion:
		return q.ID == m.ID && q.versionEqual(m)
	case MatchIDVersionLong:
		return q.ID == m.ID && q.VersionLong == m.VersionLong
	case MatchObjectName:
		return q.ID == m.Name()
	case MatchStrict:
		return q.ID == m.ID && q.versionEqual(m) && q.VersionLong == m.VersionLong
	default:
		return false
	}
}

func (q Query) versionEqual(m *LoadedModule) bool {
	if m.Version == nil {
		return false
	}
	v, err := semver.Parse(q.Version)
	if err != nil {
		return false
	}
	return v.Equal(*m.Version)
}
