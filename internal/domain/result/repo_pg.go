package result

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

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/prescription"
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

const resultCols = `id, prescription_id, "values", narrative, interpretation, reviewed_by, reviewed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	values, err := json.Marshal(res.Values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO result (id, prescription_id, "values", narrative, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		res.ID, res.PrescriptionID, values, res.Narrative, res.CreatedAt, res.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM result WHERE id = $1`, id)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.NotFound("result", id.String())
	}
	return res, err
}

func (r *repoPG) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Result, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM result WHERE prescription_id = $1`, prescriptionID)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

func (r *repoPG) UpdatePayload(ctx context.Context, id uuid.UUID, values Values, narrative string) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE result SET "values" = $2, narrative = $3, updated_at = now()
		WHERE id = $1`,
		id, payload, narrative,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return workflow.NotFound("result", id.String())
	}
	return nil
}

func (r *repoPG) SetReview(ctx context.Context, id, reviewedBy uuid.UUID, interpretation string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE result SET interpretation = $2, reviewed_by = $3, reviewed_at = now(), updated_at = now()
		WHERE id = $1 AND reviewed_at IS NULL`,
		id, interpretation, reviewedBy,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Result, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT r.id, r.prescription_id, r."values", r.narrative, r.interpretation, r.reviewed_by, r.reviewed_at, r.created_at, r.updated_at
		FROM result r
		JOIN prescription p ON p.id = r.prescription_id
		WHERE p.doctor_id = $1 AND p.status = $2 AND r.reviewed_at IS NULL
		ORDER BY r.created_at`,
		doctorID, prescription.StatusResultsAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	var values []byte
	if err := row.Scan(&res.ID, &res.PrescriptionID, &values, &res.Narrative, &res.Interpretation,
		&res.ReviewedBy, &res.ReviewedAt, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &res.Values); err != nil {
			return nil, fmt.Errorf("unmarshal values: %w", err)
		}
	}
	return &res, nil
}
