package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/automata"
	"github.com/meikuraledutech/automata/ast"
	"github.com/meikuraledutech/automata/interpreter"
	"github.com/meikuraledutech/automata/postgres"
	"github.com/olekukonko/tablewriter"
)

// vendingMachine is a small model: a machine, a customer who only drinks
// tea, their composition, and a couple of nets.
func vendingMachine() *ast.Program {
	return &ast.Program{
		Processes: []ast.Definition{
			{Ident: "MACHINE", Body: ast.Seq(ast.Or(
				ast.Seq(ast.Ref("MACHINE"), "tea"),
				ast.Seq(ast.Ref("MACHINE"), "coffee"),
			), "coin")},
			{Ident: "CUSTOMER", Body: ast.Seq(ast.Ref("CUSTOMER"), "coin", "tea")},
			{Ident: "SYSTEM", Body: ast.Apply(ast.FuncSimp, ast.Par(ast.Ref("MACHINE"), ast.Ref("CUSTOMER")))},
			{Ident: "SPEC", Body: ast.Seq(ast.Ref("SPEC"), "coin", "tea")},
			{
				Ident:  "PAID",
				Body:   ast.Seq(ast.Ref("PAID"), "coin", "tea"),
				Hiding: &ast.Hiding{Mode: ast.Includes, Set: []string{"coin"}},
			},
			{Ident: "OBSERVED", Body: ast.Apply(ast.FuncAbs, ast.Ref("PAID"))},
			{Ident: "TEA", Body: ast.Seq(ast.Ref("TEA"), "tea")},
			{Ident: "SELECT", Body: ast.ForEach("i", ast.IntRange(1, 3), ast.Seq(ast.STOP(), "button$i"))},
			{Ident: "SLOT", Kind: automata.KindPetriNet, Body: ast.Seq(ast.STOP(), "coin", "credit")},
			{Ident: "DISPENSER", Kind: automata.KindPetriNet, Body: ast.Seq(ast.STOP(), "credit", "tea")},
			{Ident: "VENDOR", Kind: automata.KindPetriNet, Body: ast.Par(ast.Ref("SLOT"), ast.Ref("DISPENSER"))},
			{Ident: "VENDOR_LTS", Body: ast.Seq(ast.Or(ast.STOP(), ast.Seq(ast.STOP(), "tea")), "coin", "credit")},
		},
		Operations: []ast.Operation{
			{Kind: ast.OpBisimulation, Processes: []string{"SYSTEM", "SPEC"}},
			{Kind: ast.OpBisimulation, Processes: []string{"MACHINE", "SPEC"}, Negated: true},
			{Kind: ast.OpBisimulation, Processes: []string{"OBSERVED", "TEA"}},
			{Kind: ast.OpBisimulation, Processes: []string{"VENDOR", "VENDOR_LTS"}},
		},
	}
}

func main() {
	ctx := context.Background()
	cfg := interpreter.DefaultConfig()

	result, err := interpreter.Compile(vendingMachine(), cfg)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}
	snapshots, err := interpreter.Snapshots(result.Processes, cfg.MarkingBound)
	if err != nil {
		log.Fatalf("snapshots: %v", err)
	}

	// ── Processes ─────────────────────────────────────────────────────
	idents := make([]string, 0, len(snapshots))
	for ident := range snapshots {
		idents = append(idents, ident)
	}
	sort.Strings(idents)

	rows := make([][]string, 0, len(idents))
	for _, ident := range idents {
		s := snapshots[ident]
		rows = append(rows, []string{
			ident,
			string(s.Kind),
			strconv.Itoa(len(s.Nodes)),
			strconv.Itoa(len(s.Edges)),
			strings.Join(s.Alphabet, " "),
			strconv.Itoa(len(s.Terminals)),
		})
	}
	if err := printTable(os.Stdout, []string{"Process", "Kind", "States", "Transitions", "Alphabet", "Terminals"}, rows); err != nil {
		log.Fatalf("table: %v", err)
	}

	// ── Operations ────────────────────────────────────────────────────
	rows = make([][]string, 0, len(result.Operations))
	for _, op := range result.Operations {
		rows = append(rows, []string{op.Statement, strconv.FormatBool(op.Result)})
	}
	if err := printTable(os.Stdout, []string{"Statement", "Result"}, rows); err != nil {
		log.Fatalf("table: %v", err)
	}

	fmt.Println("\nSYSTEM:")
	printJSON(snapshots["SYSTEM"])

	// ── Persistence (optional) ────────────────────────────────────────
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store automata.Store = postgres.New(pool)
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	session := uuid.NewString()
	if err := store.SaveProcesses(ctx, session, snapshots); err != nil {
		log.Fatalf("save processes: %v", err)
	}
	if err := store.SaveOperations(ctx, session, result.Operations); err != nil {
		log.Fatalf("save operations: %v", err)
	}
	fmt.Printf("\nsession %s saved\n", session)

	vendor, err := store.GetProcess(ctx, session, "VENDOR")
	if err != nil {
		log.Fatalf("get process: %v", err)
	}
	fmt.Println("\nVENDOR retrieved:")
	printJSON(vendor)

	if err := store.DeleteSession(ctx, session); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nsession deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
