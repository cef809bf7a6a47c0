// Package result implements exam result capture and doctor review. A result
// belongs to exactly one lab order and moves the order forward when written
// and when reviewed.
package result

import (
	"time"

	"github.com/google/uuid"
)

// Values is the structured measurement payload of a result.
type Values map[string]interface{}

// Result maps to the result table. prescription_id carries a unique
// constraint; an order never has more than one result.
type Result struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	Values         Values     `db:"values" json:"values"`
	Narrative      string     `db:"narrative" json:"narrative"`
	Interpretation *string    `db:"interpretation" json:"interpretation,omitempty"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Reviewed reports whether a doctor has signed off on this result.
func (r *Result) Reviewed() bool {
	return r.ReviewedAt != nil
}
