package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/cbegin/onbeat-go/internal/config"
)

func TestPauseKeyFollowsSettings(t *testing.T) {
	esc := tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)
	p := tcell.NewEventKey(tcell.KeyRune, 'P', tcell.ModNone)

	def, err := parsePauseKey(config.Default().Input.Pause)
	if err != nil {
		t.Fatalf("default pause key: %v", err)
	}
	if !def.matches(esc) || def.matches(p) {
		t.Fatalf("default binding should match Escape only")
	}

	custom, err := parsePauseKey("p")
	if err != nil {
		t.Fatalf("custom pause key: %v", err)
	}
	if !custom.matches(p) || custom.matches(esc) {
		t.Fatalf("binding %q should match the p key only", custom.name)
	}

	if _, err := parsePauseKey("Space"); err == nil {
		t.Fatalf("multi-character names other than Escape should be rejected")
	}
}

func TestRuneKeysLowercase(t *testing.T) {
	keys, err := runeKeys(config.Default())
	if err != nil {
		t.Fatalf("runeKeys: %v", err)
	}
	for r, want := range map[rune]int{'d': 0, 'f': 1, 'j': 2, 'k': 3} {
		if got, ok := keys[r]; !ok || int(got) != want {
			t.Fatalf("key %q -> %v, %v; want column %d", r, got, ok, want)
		}
	}
}
