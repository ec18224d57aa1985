package clickhouse

import (
	"context"
	"fmt"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// EvaluationLogStore implements storage.EvaluationLogStore using ClickHouse.
// MergeTree keeps the log append-only; trimming deletes the oldest rows
// by timestamp with a lightweight mutation.
type EvaluationLogStore struct {
	conn *Conn
}

// NewEvaluationLogStore creates a new EvaluationLogStore.
func NewEvaluationLogStore(conn *Conn) *EvaluationLogStore {
	return &EvaluationLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EvaluationLogStore = (*EvaluationLogStore)(nil)

// Append adds an evaluation to the log.
func (s *EvaluationLogStore) Append(ctx context.Context, e *domain.Evaluation) error {
	if e == nil || e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO evaluation_log (
			evaluation_id, token_address, mode, action, score,
			reasoning, risk, status, issues, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		e.EvaluationID, e.TokenAddress, string(e.Mode), string(e.Action), e.Score,
		e.Reasoning, string(e.Risk), string(e.Status), e.Issues, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// Recent returns up to n evaluations, newest first.
func (s *EvaluationLogStore) Recent(ctx context.Context, n int) ([]*domain.Evaluation, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `
		SELECT
			evaluation_id, token_address, mode, action, score,
			reasoning, risk, status, issues, ts
		FROM evaluation_log
		ORDER BY ts DESC, evaluation_id DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query recent evaluations: %w", err)
	}
	defer rows.Close()

	var result []*domain.Evaluation
	for rows.Next() {
		var e domain.Evaluation
		var mode, action, risk, status string
		err := rows.Scan(
			&e.EvaluationID, &e.TokenAddress, &mode, &action, &e.Score,
			&e.Reasoning, &risk, &status, &e.Issues, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}
		e.Mode = domain.Mode(mode)
		e.Action = domain.Action(action)
		e.Risk = domain.RiskLevel(risk)
		e.Status = domain.VerifyStatus(status)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation rows: %w", err)
	}
	return result, nil
}

// ScoreDistribution returns evaluation counts bucketed by score decade
// (0, 10, ... 100) and action.
func (s *EvaluationLogStore) ScoreDistribution(ctx context.Context) (map[int]map[domain.Action]int64, error) {
	query := `
		SELECT
			least(greatest(toInt32(intDiv(toInt32(score), 10) * 10), 0), 100) AS bucket,
			action,
			count() AS n
		FROM evaluation_log
		GROUP BY bucket, action
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query score distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[int]map[domain.Action]int64)
	for rows.Next() {
		var bucket int32
		var action string
		var n uint64
		if err := rows.Scan(&bucket, &action, &n); err != nil {
			return nil, fmt.Errorf("scan distribution row: %w", err)
		}
		actions, exists := dist[int(bucket)]
		if !exists {
			actions = make(map[domain.Action]int64)
			dist[int(bucket)] = actions
		}
		actions[domain.Action(action)] = int64(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distribution rows: %w", err)
	}
	return dist, nil
}

// Trim removes evaluations beyond maxEntries, oldest first.
func (s *EvaluationLogStore) Trim(ctx context.Context, maxEntries int) (int, error) {
	if maxEntries < 0 {
		return 0, storage.ErrInvalidInput
	}

	var total uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM evaluation_log`)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}

	excess := int(total) - maxEntries
	if excess <= 0 {
		return 0, nil
	}

	// Find the timestamp cutoff below which rows are dropped.
	var cutoff int64
	row = s.conn.QueryRow(ctx, `
		SELECT ts FROM evaluation_log
		ORDER BY ts ASC, evaluation_id ASC
		LIMIT 1 OFFSET ?
	`, excess)
	if err := row.Scan(&cutoff); err != nil {
		return 0, fmt.Errorf("find trim cutoff: %w", err)
	}

	// Rows sharing the cutoff timestamp survive until the next trim.
	err := s.conn.Exec(ctx, `ALTER TABLE evaluation_log DELETE WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("trim evaluation log: %w", err)
	}
	return excess, nil
}
