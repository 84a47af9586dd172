package model

import "github.com/google/uuid"

// assignID gives a row its primary key before insert so the schema does not
// depend on a database-side UUID generator.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
