package automata

import (
	"context"
	"errors"
)

var (
	ErrProcessNotFound = errors.New("automata: process not found")
	ErrSessionNotFound = errors.New("automata: session not found")
)

// OperationResult is the outcome of one operation declared in the input,
// such as a bisimulation query.
type OperationResult struct {
	Statement string `json:"statement"`
	Result    bool   `json:"result"`
}

// Store defines the contract for persisting compiled processes.
// Everything is scoped by a compilation session id.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Processes
	SaveProcesses(ctx context.Context, sessionID string, processes map[string]*Snapshot) error
	GetProcess(ctx context.Context, sessionID, ident string) (*Snapshot, error)
	ListProcesses(ctx context.Context, sessionID string) ([]string, error)
	DeleteProcess(ctx context.Context, sessionID, ident string) error

	// Operations
	SaveOperations(ctx context.Context, sessionID string, results []OperationResult) error
	ListOperations(ctx context.Context, sessionID string) ([]OperationResult, error)

	DeleteSession(ctx context.Context, sessionID string) error
}
