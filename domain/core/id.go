package core

import (
	"github.com/google/uuid"
)

// ID represents an opaque identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

func (id ID) String() string { return string(id) }

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one CLI or library invocation in rendered reports.
type RunID ID

// NewRunID creates a time-ordered run identifier.
func NewRunID() RunID { return RunID(NewID()) }

func (id RunID) String() string { return ID(id).String() }
