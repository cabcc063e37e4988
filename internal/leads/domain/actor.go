package domain

import "github.com/google/uuid"

// Actor is whoever performs a lead mutation.
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

// SystemActor performs automated moves, such as partner-approved
// prescriptions. It is recorded without a user reference.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, IsAdmin: true}
}

// UserRef returns the actor's ID for persistence, or nil for the system.
func (a Actor) UserRef() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}
