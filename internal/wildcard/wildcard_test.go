package wildcard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExpandMatchesFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.dat"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Expand(context.Background(), filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 entries", got)
	}
}

func TestExpandNoMatchReturnsLiteral(t *testing.T) {
	pattern := "/no/such/dir/*.nope"
	got, err := Expand(context.Background(), pattern)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 || got[0] != pattern {
		t.Fatalf("got %v, want literal pattern back", got)
	}
}

func TestExpandRejectsRelativePattern(t *testing.T) {
	if _, err := Expand(context.Background(), "relative/*.txt"); err == nil {
		t.Fatal("expected error for relative pattern")
	}
}
