package vitals

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

const vitalCols = `id, appointment_id, patient_id, measurements, notes, entered_by, action_type, is_draft, finalized_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *VitalHistory) error {
	v.ID = uuid.New()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	measurements, err := json.Marshal(v.Measurements)
	if err != nil {
		return fmt.Errorf("marshal measurements: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO vital_history (id, appointment_id, patient_id, measurements, notes, entered_by, action_type, is_draft, finalized_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.AppointmentID, v.PatientID, measurements, v.Notes, v.EnteredBy,
		v.ActionType, v.IsDraft, v.FinalizedAt, v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*VitalHistory, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+vitalCols+` FROM vital_history WHERE id = $1`, id)
	v, err := scanVital(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("vitals", id.String())
	}
	return v, err
}

func (r *repoPG) GetDraft(ctx context.Context, appointmentID, enteredBy uuid.UUID) (*VitalHistory, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+vitalCols+` FROM vital_history WHERE appointment_id = $1 AND entered_by = $2 AND is_draft = true`,
		appointmentID, enteredBy)
	v, err := scanVital(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *repoPG) UpdateDraft(ctx context.Context, v *VitalHistory) error {
	v.UpdatedAt = time.Now().UTC()
	measurements, err := json.Marshal(v.Measurements)
	if err != nil {
		return fmt.Errorf("marshal measurements: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE vital_history
		SET measurements = $2, notes = $3, action_type = $4, updated_at = $5
		WHERE id = $1 AND is_draft = true`,
		v.ID, measurements, v.Notes, v.ActionType, v.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("vitals draft", v.ID.String())
	}
	return nil
}

func (r *repoPG) Finalize(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE vital_history
		SET is_draft = false, action_type = $2, finalized_at = now(), updated_at = now()
		WHERE id = $1 AND is_draft = true`,
		id, ActionCreated,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) AmendFinalized(ctx context.Context, v *VitalHistory) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	measurements, err := json.Marshal(v.Measurements)
	if err != nil {
		return false, fmt.Errorf("marshal measurements: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE vital_history
		SET measurements = $2, notes = $3, action_type = $4, updated_at = $5
		WHERE id = $1 AND is_draft = false`,
		v.ID, measurements, v.Notes, ActionUpdated, v.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ListFinalizedByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalHistory, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM vital_history WHERE patient_id = $1 AND is_draft = false`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vitalCols+` FROM vital_history WHERE patient_id = $1 AND is_draft = false ORDER BY finalized_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vitals, err := collectVitals(rows)
	if err != nil {
		return nil, 0, err
	}
	return vitals, total, nil
}

func (r *repoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalHistory, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vitalCols+` FROM vital_history WHERE appointment_id = $1 ORDER BY created_at`,
		appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVitals(rows)
}

func scanVital(row pgx.Row) (*VitalHistory, error) {
	var v VitalHistory
	var measurements []byte
	if err := row.Scan(&v.ID, &v.AppointmentID, &v.PatientID, &measurements, &v.Notes, &v.EnteredBy,
		&v.ActionType, &v.IsDraft, &v.FinalizedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &v.Measurements); err != nil {
			return nil, fmt.Errorf("unmarshal measurements: %w", err)
		}
	}
	return &v, nil
}

func collectVitals(rows pgx.Rows) ([]*VitalHistory, error) {
	var vitals []*VitalHistory
	for rows.Next() {
		v, err := scanVital(rows)
		if err != nil {
			return nil, err
		}
		vitals = append(vitals, v)
	}
	return vitals, rows.Err()
}
