package main

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/interpreter"
)

// server keeps the live compilation sessions. store is nil when persistence
// is disabled.
type server struct {
	store automata.Store
	cfg   interpreter.Config

	mu       sync.Mutex
	sessions map[string]*interpreter.Session
}

func (s *server) session(id string) (*interpreter.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func newApp(store automata.Store, cfg interpreter.Config) *fiber.App {
	s := &server{store: store, cfg: cfg, sessions: make(map[string]*interpreter.Session)}
	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if s.store == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence disabled"})
		}
		if err := s.store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if s.store == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence disabled"})
		}
		if err := s.store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Sessions ──────────────────────────────────────────────────────
	app.Post("/sessions", func(c fiber.Ctx) error {
		id := uuid.NewString()
		s.mu.Lock()
		s.sessions[id] = interpreter.NewSession(id, s.cfg, nil)
		s.mu.Unlock()
		log.Infow("session created", "session", id)
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Delete("/sessions/:id", func(c fiber.Ctx) error {
		id := c.Params("id")
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		if s.store != nil {
			if err := s.store.DeleteSession(c.Context(), id); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.SendStatus(204)
	})

	// ── Compile ───────────────────────────────────────────────────────
	app.Post("/sessions/:id/compile", func(c fiber.Ctx) error {
		sess, ok := s.session(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}

		prog, err := ast.DecodeProgram(c.Body())
		if errors.Is(err, automata.ErrUnknownNodeKind) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		fair := sess.Config().FairAbstraction
		if q := c.Query("fair"); q != "" {
			if fair, err = strconv.ParseBool(q); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid fair parameter"})
			}
		}

		result, err := sess.Compile(prog, fair)
		if err != nil {
			log.Warnw("compilation failed", "session", sess.ID, "error", err)
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		snapshots, err := interpreter.Snapshots(result.Processes, s.cfg.MarkingBound)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}

		if s.store != nil {
			if err := s.store.SaveProcesses(c.Context(), sess.ID, snapshots); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			if err := s.store.SaveOperations(c.Context(), sess.ID, result.Operations); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
		}

		log.Infow("session compiled", "session", sess.ID, "processes", len(snapshots), "operations", len(result.Operations))
		return c.JSON(fiber.Map{"processes": snapshots, "operations": result.Operations})
	})

	// ── Processes ─────────────────────────────────────────────────────
	app.Get("/sessions/:id/processes", func(c fiber.Ctx) error {
		id := c.Params("id")
		if sess, ok := s.session(id); ok {
			idents := make([]string, 0)
			for ident := range sess.Processes() {
				idents = append(idents, ident)
			}
			sort.Strings(idents)
			return c.JSON(idents)
		}
		if s.store == nil {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		idents, err := s.store.ListProcesses(c.Context(), id)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if len(idents) == 0 {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		return c.JSON(idents)
	})

	app.Get("/sessions/:id/processes/:ident", func(c fiber.Ctx) error {
		id, ident := c.Params("id"), c.Params("ident")
		if sess, ok := s.session(id); ok {
			p, ok := sess.Process(ident)
			if !ok {
				return c.Status(404).JSON(fiber.Map{"error": "process not found"})
			}
			snap, err := interpreter.Snapshot(p, s.cfg.MarkingBound)
			if err != nil {
				return c.Status(422).JSON(fiber.Map{"error": err.Error()})
			}
			return c.JSON(snap)
		}
		if s.store == nil {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		snap, err := s.store.GetProcess(c.Context(), id, ident)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if snap == nil {
			return c.Status(404).JSON(fiber.Map{"error": "process not found"})
		}
		return c.JSON(snap)
	})

	// ── Equivalence ───────────────────────────────────────────────────
	app.Post("/sessions/:id/equivalence", func(c fiber.Ctx) error {
		sess, ok := s.session(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		var req struct {
			Processes []string `json:"processes"`
		}
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		equivalent, err := sess.Equivalent(req.Processes...)
		if errors.Is(err, automata.ErrUndefinedIdentifier) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"equivalent": equivalent})
	})

	return app
}
