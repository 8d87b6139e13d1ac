// Package ident issues the globally unique identifiers used to reference
// presets, resources and nodes across a project. Identifiers are random
// 128-bit values in canonical textual form; they are assigned once at
// construction and never reused.
package ident

import "github.com/google/uuid"

// ID is an opaque identifier. Cross-entity references always store an ID,
// never a pointer and never a name.
type ID string

// Zero is the empty identifier, used to mean "no reference".
const Zero ID = ""

// New returns a fresh identifier. Collisions in the 128-bit space are
// treated as negligible; no bookkeeping is kept.
func New() ID {
	return ID(uuid.NewString())
}

// Short returns an abbreviated form for error messages and tree rendering.
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
