package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// OutcomeRecordStore implements storage.OutcomeRecordStore using PostgreSQL.
type OutcomeRecordStore struct {
	pool *Pool
}

// NewOutcomeRecordStore creates a new OutcomeRecordStore.
func NewOutcomeRecordStore(pool *Pool) *OutcomeRecordStore {
	return &OutcomeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeRecordStore = (*OutcomeRecordStore)(nil)

const outcomeRecordColumns = `
	record_id, token_address, token_name, final_score,
	reasoning, signals, wallets, pnl, outcome, opened_at, closed_at
`

// Insert adds a record. Returns ErrDuplicateKey if record_id exists.
func (s *OutcomeRecordStore) Insert(ctx context.Context, r *domain.OutcomeRecord) error {
	if r == nil || r.RecordID == "" || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO outcome_records (` + outcomeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RecordID, r.TokenAddress, r.TokenName, r.FinalScore,
		r.Reasoning, r.Signals, r.Wallets, r.PnL, string(r.Outcome), r.OpenedAt, r.ClosedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by ID. Returns ErrNotFound if absent.
func (s *OutcomeRecordStore) GetByID(ctx context.Context, recordID string) (*domain.OutcomeRecord, error) {
	query := `SELECT ` + outcomeRecordColumns + ` FROM outcome_records WHERE record_id = $1`

	row := s.pool.QueryRow(ctx, query, recordID)
	r, err := scanOutcomeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome record by id: %w", err)
	}
	return r, nil
}

// GetByToken retrieves all records for a token, ordered by closed_at ASC.
func (s *OutcomeRecordStore) GetByToken(ctx context.Context, token string) ([]*domain.OutcomeRecord, error) {
	query := `
		SELECT ` + outcomeRecordColumns + `
		FROM outcome_records
		WHERE token_address = $1
		ORDER BY closed_at ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get outcome records by token: %w", err)
	}
	defer rows.Close()

	return scanOutcomeRecords(rows)
}

// Recent returns up to n records, newest first.
func (s *OutcomeRecordStore) Recent(ctx context.Context, n int) ([]*domain.OutcomeRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `
		SELECT ` + outcomeRecordColumns + `
		FROM outcome_records
		ORDER BY closed_at DESC, record_id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("get recent outcome records: %w", err)
	}
	defer rows.Close()

	return scanOutcomeRecords(rows)
}

// Trim removes records beyond maxRecords, oldest first.
func (s *OutcomeRecordStore) Trim(ctx context.Context, maxRecords int) (int, error) {
	if maxRecords < 0 {
		return 0, storage.ErrInvalidInput
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM outcome_records`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count outcome records: %w", err)
	}

	excess := total - maxRecords
	if excess <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM outcome_records
		WHERE record_id IN (
			SELECT record_id FROM outcome_records ORDER BY closed_at ASC, record_id ASC LIMIT $1
		)
	`
	if _, err := s.pool.Exec(ctx, query, excess); err != nil {
		return 0, fmt.Errorf("trim outcome records: %w", err)
	}
	return excess, nil
}

// scanOutcomeRecord scans a single row into an OutcomeRecord.
func scanOutcomeRecord(row pgx.Row) (*domain.OutcomeRecord, error) {
	var r domain.OutcomeRecord
	var outcome string

	err := row.Scan(
		&r.RecordID, &r.TokenAddress, &r.TokenName, &r.FinalScore,
		&r.Reasoning, &r.Signals, &r.Wallets, &r.PnL, &outcome, &r.OpenedAt, &r.ClosedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Outcome = domain.Outcome(outcome)
	return &r, nil
}

// scanOutcomeRecords scans multiple rows into a slice of OutcomeRecord.
func scanOutcomeRecords(rows pgx.Rows) ([]*domain.OutcomeRecord, error) {
	var records []*domain.OutcomeRecord

	for rows.Next() {
		r, err := scanOutcomeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome record row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome record rows: %w", err)
	}

	return records, nil
}
