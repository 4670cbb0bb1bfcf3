package automata

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3/log"
)

func TestDebugwOptIn(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		SetDebug(false)
	})

	tests := []struct {
		name string
		on   bool
		want bool
	}{
		{"off by default", false, false},
		{"switched on", true, true},
		{"switched off again", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			SetDebug(tt.on)
			Debugw("interpreted process", "ident", "P")
			if got := strings.Contains(buf.String(), "interpreted process"); got != tt.want {
				t.Errorf("expected output %v, got %q", tt.want, buf.String())
			}
		})
	}
}
