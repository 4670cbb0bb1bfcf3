package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/meikuraledutech/automata/interpreter"
)

func TestPrintTable(t *testing.T) {
	result, err := interpreter.Compile(vendingMachine(), interpreter.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rows := make([][]string, 0, len(result.Operations))
	for _, op := range result.Operations {
		rows = append(rows, []string{op.Statement, strconv.FormatBool(op.Result)})
	}

	var buf bytes.Buffer
	if err := printTable(&buf, []string{"Statement", "Result"}, rows); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(strings.ToUpper(out), "STATEMENT") {
		t.Errorf("expected a header row, got %q", out)
	}
	for _, row := range rows {
		if !strings.Contains(out, row[1]) {
			t.Errorf("expected result %s in the table, got %q", row[1], out)
		}
	}
}
