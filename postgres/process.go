package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/automata"
)

// SaveProcesses stores every snapshot of a session in one transaction.
// Processes previously saved for the session are replaced.
func (s *PGStore) SaveProcesses(ctx context.Context, sessionID string, processes map[string]*automata.Snapshot) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("automata: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics. Node and edge rows cascade.
	if _, err := tx.Exec(ctx, `DELETE FROM processes WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("automata: delete processes: %w", err)
	}

	idents := make([]string, 0, len(processes))
	for ident := range processes {
		idents = append(idents, ident)
	}
	sort.Strings(idents)

	for _, ident := range idents {
		if err := insertProcess(ctx, tx, sessionID, ident, processes[ident]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("automata: commit: %w", err)
	}
	return nil
}

func insertProcess(ctx context.Context, tx pgx.Tx, sessionID, ident string, snap *automata.Snapshot) error {
	processID := uuid.NewString()
	alphabet := snap.Alphabet
	if alphabet == nil {
		alphabet = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO processes (id, session_id, ident, kind, root, alphabet) VALUES ($1, $2, $3, $4, $5, $6)`,
		processID, sessionID, ident, string(snap.Kind), snap.Root, alphabet,
	); err != nil {
		return fmt.Errorf("automata: insert process %s: %w", ident, err)
	}

	for i, n := range snap.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO automaton_nodes (id, process_id, node_id, position, label, start, terminal) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), processID, n.ID, i, n.Label, n.Start, string(n.Terminal),
		); err != nil {
			return fmt.Errorf("automata: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range snap.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO automaton_edges (id, process_id, edge_id, position, label, from_node, to_node) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), processID, e.ID, i, e.Label, e.From, e.To,
		); err != nil {
			return fmt.Errorf("automata: insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// GetProcess retrieves one stored snapshot.
// Returns nil, nil if the session has no such process.
func (s *PGStore) GetProcess(ctx context.Context, sessionID, ident string) (*automata.Snapshot, error) {
	var (
		processID string
		kind      string
	)
	snap := &automata.Snapshot{
		ID:        ident,
		Nodes:     []automata.NodeData{},
		Edges:     []automata.EdgeData{},
		Terminals: []string{},
	}
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, root, alphabet FROM processes WHERE session_id = $1 AND ident = $2`,
		sessionID, ident,
	).Scan(&processID, &kind, &snap.Root, &snap.Alphabet)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("automata: get process: %w", err)
	}
	snap.Kind = automata.Kind(kind)

	rows, err := s.db.Query(ctx,
		`SELECT node_id, label, start, terminal FROM automaton_nodes WHERE process_id = $1 ORDER BY position`, processID)
	if err != nil {
		return nil, fmt.Errorf("automata: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n        automata.NodeData
			terminal string
		)
		if err := rows.Scan(&n.ID, &n.Label, &n.Start, &terminal); err != nil {
			return nil, fmt.Errorf("automata: scan node: %w", err)
		}
		n.Terminal = automata.TerminalKind(terminal)
		snap.Nodes = append(snap.Nodes, n)
		if n.Terminal != automata.NotTerminal {
			snap.Terminals = append(snap.Terminals, n.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("automata: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT edge_id, label, from_node, to_node FROM automaton_edges WHERE process_id = $1 ORDER BY position`, processID)
	if err != nil {
		return nil, fmt.Errorf("automata: query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e automata.EdgeData
		if err := rows.Scan(&e.ID, &e.Label, &e.From, &e.To); err != nil {
			return nil, fmt.Errorf("automata: scan edge: %w", err)
		}
		snap.Edges = append(snap.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("automata: rows edges: %w", err)
	}

	return snap, nil
}

// ListProcesses returns the identifiers stored for a session, sorted.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListProcesses(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ident FROM processes WHERE session_id = $1 ORDER BY ident`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("automata: list processes: %w", err)
	}
	defer rows.Close()

	idents := []string{}
	for rows.Next() {
		var ident string
		if err := rows.Scan(&ident); err != nil {
			return nil, fmt.Errorf("automata: scan process: %w", err)
		}
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("automata: rows processes: %w", err)
	}
	return idents, nil
}

// DeleteProcess removes one process and its nodes and edges.
// Returns ErrProcessNotFound if nothing was stored under ident.
func (s *PGStore) DeleteProcess(ctx context.Context, sessionID, ident string) error {
	ct, err := s.db.Exec(ctx,
		`DELETE FROM processes WHERE session_id = $1 AND ident = $2`, sessionID, ident)
	if err != nil {
		return fmt.Errorf("automata: delete process: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return automata.ErrProcessNotFound
	}
	return nil
}
