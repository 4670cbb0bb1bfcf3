package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processes (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    ident      TEXT NOT NULL,
    kind       TEXT NOT NULL,
    root       TEXT NOT NULL DEFAULT '',
    alphabet   TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (session_id, ident)
);

CREATE TABLE IF NOT EXISTS automaton_nodes (
    id         TEXT PRIMARY KEY,
    process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    node_id    TEXT NOT NULL,
    position   INT  NOT NULL,
    label      TEXT NOT NULL DEFAULT '',
    start      BOOLEAN NOT NULL DEFAULT FALSE,
    terminal   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS automaton_edges (
    id         TEXT PRIMARY KEY,
    process_id TEXT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
    edge_id    TEXT NOT NULL,
    position   INT  NOT NULL,
    label      TEXT NOT NULL,
    from_node  TEXT NOT NULL,
    to_node    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS operations (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    position   INT  NOT NULL,
    statement  TEXT NOT NULL,
    result     BOOLEAN NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_processes_session    ON processes(session_id);
CREATE INDEX IF NOT EXISTS idx_automaton_nodes_proc ON automaton_nodes(process_id);
CREATE INDEX IF NOT EXISTS idx_automaton_edges_proc ON automaton_edges(process_id);
CREATE INDEX IF NOT EXISTS idx_operations_session   ON operations(session_id);
`

// CreateSchema creates the process and operation tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every table created by CreateSchema.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS automaton_edges, automaton_nodes, processes, operations CASCADE;`)
	return err
}
