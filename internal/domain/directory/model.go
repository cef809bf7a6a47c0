// Package directory holds the minimal read models for users and patients the
// lifecycle engines depend on: role lookup and existence checks. Full
// demographic CRUD lives with external collaborators.
package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
)

// User maps to the system_user table.
type User struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Role      access.Role `db:"role" json:"role"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
