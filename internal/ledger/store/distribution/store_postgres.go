package distribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"relieflink/internal/ledger/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

// PostgresStore persists the ledger in PostgreSQL. Each row carries the ID of
// the record it was appended after (empty for the first record of a key); the
// unique index on (family_commitment, aid_type, prev_id) makes the conditional
// append atomic at the database without explicit locking.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Latest returns the most recent record for the commitment and aid type.
func (s *PostgresStore) Latest(ctx context.Context, commitment domain.Commitment, aidType domain.AidType) (*models.DistributionRecord, error) {
	query := `
		SELECT id, family_commitment, aid_type, quantity, location, recorded_at, recorded_by
		FROM distributions
		WHERE family_commitment = $1 AND aid_type = $2
		ORDER BY seq DESC
		LIMIT 1
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, commitment.String(), string(aidType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest distribution: %w", err)
	}
	return rec, nil
}

// AppendIfLatest appends rec only if prev is still the latest record for
// rec's commitment and aid type.
func (s *PostgresStore) AppendIfLatest(ctx context.Context, rec *models.DistributionRecord, prev *models.DistributionRecord) error {
	if rec == nil {
		return fmt.Errorf("distribution record is required")
	}
	prevID := ""
	if prev != nil {
		prevID = prev.ID
	}
	query := `
		INSERT INTO distributions (id, family_commitment, aid_type, quantity, location, recorded_at, recorded_by, prev_id)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE $8 = COALESCE((
			SELECT id FROM distributions
			WHERE family_commitment = $2 AND aid_type = $3
			ORDER BY seq DESC
			LIMIT 1
		), '')
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.FamilyCommitment.String(),
		string(rec.AidType),
		rec.Quantity,
		rec.Location,
		rec.Timestamp,
		rec.RecordedBy,
		prevID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append distribution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append distribution rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// History returns every record for the commitment, oldest first.
func (s *PostgresStore) History(ctx context.Context, commitment domain.Commitment) ([]*models.DistributionRecord, error) {
	query := `
		SELECT id, family_commitment, aid_type, quantity, location, recorded_at, recorded_by
		FROM distributions
		WHERE family_commitment = $1
		ORDER BY recorded_at ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, commitment.String())
	if err != nil {
		return nil, fmt.Errorf("distribution history: %w", err)
	}
	defer rows.Close()

	var out []*models.DistributionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("distribution history scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distribution history rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.DistributionRecord, error) {
	var rec models.DistributionRecord
	var commitment, aidType string
	if err := row.Scan(
		&rec.ID,
		&commitment,
		&aidType,
		&rec.Quantity,
		&rec.Location,
		&rec.Timestamp,
		&rec.RecordedBy,
	); err != nil {
		return nil, err
	}
	rec.FamilyCommitment = domain.Commitment(commitment)
	rec.AidType = domain.AidType(aidType)
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
