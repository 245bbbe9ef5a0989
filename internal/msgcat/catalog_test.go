package msgcat

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestEmbeddedDefaults(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    if got := c.Text("room.not_found", nil); got != "Room not found" {
        t.Fatalf("room.not_found = %q", got)
    }
    got, err := c.Render("game.over.checkmate", map[string]string{"Winner": "White"})
    if err != nil { t.Fatalf("Render: %v", err) }
    if got != "Checkmate! White wins!" { t.Fatalf("checkmate text = %q", got) }
}

func TestMissingKeyFallsBack(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    if _, err := c.Render("room.nope", nil); err == nil { t.Fatalf("expected error for unknown key") }
    if got := c.Text("room.nope", nil); got != "room.nope" { t.Fatalf("fallback = %q", got) }
    // missing template field
    if _, err := c.Render("room.already_member", map[string]string{}); err == nil {
        t.Fatalf("expected missingkey error")
    }
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("room:\n  full: \"Table occupied\"\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    if got := c.Text("room.full", nil); got != "Table occupied" { t.Fatalf("override not applied: %q", got) }
    if got := c.Text("room.not_found", nil); got != "Room not found" { t.Fatalf("default lost: %q", got) }

    if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("room:\n  full: \"dup\"\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    if _, err := New(dir); err == nil { t.Fatalf("expected duplicate override key error") }
}

func TestRequireAndSource(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "ops.yaml"), []byte("room:\n  not_found: \"No such table\"\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    if err := c.Require("room.full", "room.not_found"); err != nil { t.Fatalf("Require: %v", err) }
    if err := c.Require("room.full", "room.nope", "game.nope"); err == nil || !strings.Contains(err.Error(), "room.nope, game.nope") {
        t.Fatalf("Require error = %v", err)
    }
    if f, _ := c.Source("room.not_found"); f != "ops.yaml" { t.Fatalf("source = %q", f) }
    if f, _ := c.Source("room.full"); f != "messages.en.yaml" { t.Fatalf("source = %q", f) }
}

func TestRejectsNonStringLeaves(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("room:\n  full: 3\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    _, err := New(dir)
    if err == nil || !strings.Contains(err.Error(), "bad.yaml:2") { t.Fatalf("expected line-numbered error, got %v", err) }

    if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("room:\n  full: \"{{.Broken\"\n"), 0o644); err != nil {
        t.Fatal(err)
    }
    if _, err := New(dir); err == nil { t.Fatalf("expected template parse error") }
}
