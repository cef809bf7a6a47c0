package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const appointmentCols = `id, patient_id, doctor_id, scheduled_at, reason, status,
	checked_in_at, vitals_requested_at, vitals_requested_by, vitals_entered_at, vitals_entered_by,
	vitals, medical_history_notes,
	consultation_notes, draft_consultation_notes, is_draft_consultation, last_auto_save_at, consulted_at, consulted_by,
	closed_at, closed_by, billing_amount, billing_status,
	modification_count, modified_by, modified_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, scheduled_at, reason, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("appointment", id.String())
	}
	return a, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment ORDER BY scheduled_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectWithTotal(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) listBy(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE `+col+` = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`,
		id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectWithTotal(rows, total)
}

func (r *repoPG) UpdateIfStatus(ctx context.Context, a *Appointment, expected Status) (bool, error) {
	a.UpdatedAt = time.Now().UTC()
	measurements, err := json.Marshal(a.Vitals)
	if err != nil {
		return false, fmt.Errorf("marshal vitals: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			patient_id = $3, doctor_id = $4, scheduled_at = $5, reason = $6, status = $7,
			checked_in_at = $8, vitals_requested_at = $9, vitals_requested_by = $10,
			vitals_entered_at = $11, vitals_entered_by = $12,
			vitals = $13, medical_history_notes = $14,
			consultation_notes = $15, draft_consultation_notes = $16, is_draft_consultation = $17,
			last_auto_save_at = $18, consulted_at = $19, consulted_by = $20,
			closed_at = $21, closed_by = $22, billing_amount = $23, billing_status = $24,
			modification_count = $25, modified_by = $26, modified_at = $27, updated_at = $28
		WHERE id = $1 AND status = $2`,
		a.ID, expected,
		a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status,
		a.CheckedInAt, a.VitalsRequestedAt, a.VitalsRequestedBy,
		a.VitalsEnteredAt, a.VitalsEnteredBy,
		measurements, a.MedicalHistoryNotes,
		a.ConsultationNotes, a.DraftConsultationNotes, a.IsDraftConsultation,
		a.LastAutoSaveAt, a.ConsultedAt, a.ConsultedBy,
		a.ClosedAt, a.ClosedBy, a.BillingAmount, a.BillingStatus,
		a.ModificationCount, a.ModifiedBy, a.ModifiedAt, a.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, to Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = now() WHERE id = $1`, id, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("appointment", id.String())
	}
	return nil
}

func (r *repoPG) AddStatusHistory(ctx context.Context, h *StatusHistory) error {
	h.ID = uuid.New()
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_status_history (id, appointment_id, from_status, to_status, changed_by, changed_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		h.ID, h.AppointmentID, h.FromStatus, h.ToStatus, h.ChangedBy, h.ChangedAt,
	)
	return err
}

func (r *repoPG) GetStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]*StatusHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, appointment_id, from_status, to_status, changed_by, changed_at
		FROM appointment_status_history WHERE appointment_id = $1 ORDER BY changed_at`,
		appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var measurements []byte
	if err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason, &a.Status,
		&a.CheckedInAt, &a.VitalsRequestedAt, &a.VitalsRequestedBy, &a.VitalsEnteredAt, &a.VitalsEnteredBy,
		&measurements, &a.MedicalHistoryNotes,
		&a.ConsultationNotes, &a.DraftConsultationNotes, &a.IsDraftConsultation, &a.LastAutoSaveAt, &a.ConsultedAt, &a.ConsultedBy,
		&a.ClosedAt, &a.ClosedBy, &a.BillingAmount, &a.BillingStatus,
		&a.ModificationCount, &a.ModifiedBy, &a.ModifiedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(measurements) > 0 && string(measurements) != "null" {
		if err := json.Unmarshal(measurements, &a.Vitals); err != nil {
			return nil, fmt.Errorf("unmarshal vitals: %w", err)
		}
	}
	return &a, nil
}

func collectWithTotal(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
