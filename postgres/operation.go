package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/automata"
)

// SaveOperations stores the operation results of a session in order,
// replacing earlier ones.
func (s *PGStore) SaveOperations(ctx context.Context, sessionID string, results []automata.OperationResult) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("automata: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM operations WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("automata: delete operations: %w", err)
	}
	for i, r := range results {
		if _, err := tx.Exec(ctx,
			`INSERT INTO operations (id, session_id, position, statement, result) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), sessionID, i, r.Statement, r.Result,
		); err != nil {
			return fmt.Errorf("automata: insert operation %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// ListOperations returns the stored results of a session in the order they
// were saved. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListOperations(ctx context.Context, sessionID string) ([]automata.OperationResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT statement, result FROM operations WHERE session_id = $1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("automata: list operations: %w", err)
	}
	defer rows.Close()

	results := []automata.OperationResult{}
	for rows.Next() {
		var r automata.OperationResult
		if err := rows.Scan(&r.Statement, &r.Result); err != nil {
			return nil, fmt.Errorf("automata: scan operation: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("automata: rows operations: %w", err)
	}
	return results, nil
}

// DeleteSession removes everything stored for a session.
// No error if the session doesn't exist.
func (s *PGStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("automata: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM operations WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("automata: delete operations: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM processes WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("automata: delete processes: %w", err)
	}

	return tx.Commit(ctx)
}
