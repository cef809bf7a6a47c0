// Package prescription implements the lab order lifecycle: a doctor creates
// an order, it is sent to the lab, a sample is collected, analysis runs, and
// results come back for review.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusSentToLab        Status = "SENT_TO_LAB"
	StatusSampleCollected  Status = "SAMPLE_COLLECTED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusResultsAvailable Status = "RESULTS_AVAILABLE"
	StatusCompleted        Status = "COMPLETED"
)

// transitions is the authoritative forward table. Sample collection is a
// timestamp on SENT_TO_LAB rather than a status change, but rows imported
// from older records may still carry SAMPLE_COLLECTED, so it keeps an exit.
var transitions = map[Status][]Status{
	StatusCreated:          {StatusSentToLab},
	StatusSentToLab:        {StatusInProgress},
	StatusSampleCollected:  {StatusInProgress},
	StatusInProgress:       {StatusResultsAvailable},
	StatusResultsAvailable: {StatusCompleted},
	StatusCompleted:        {},
}

// CanTransition reports whether from→to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Prescription maps to the prescription table.
type Prescription struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID     *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	OrderText         string     `db:"order_text" json:"order_text"`
	Status            Status     `db:"status" json:"status"`
	NurseID           *uuid.UUID `db:"nurse_id" json:"nurse_id,omitempty"`
	SampleCollectedAt *time.Time `db:"sample_collected_at" json:"sample_collected_at,omitempty"`
	AnalysisStartedAt *time.Time `db:"analysis_started_at" json:"analysis_started_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// SampleCollected reports whether a sample has been taken for this order.
func (p *Prescription) SampleCollected() bool {
	return p.SampleCollectedAt != nil
}
