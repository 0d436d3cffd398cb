//go:build !detection

package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintStableForSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("same bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	h := NewFrameHasher()
	fpA, err := h.Fingerprint(context.Background(), a)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	fpB, err := h.Fingerprint(context.Background(), b)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}

	// Content decides the fingerprint, the path does not.
	if fpA != fpB {
		t.Errorf("identical content hashed differently: %q vs %q", fpA, fpB)
	}
	if len(fpA) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(fpA))
	}
}

func TestFingerprintDiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	if err := os.WriteFile(a, []byte("clip one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("clip two"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewFrameHasher()
	fpA, _ := h.Fingerprint(context.Background(), a)
	fpB, _ := h.Fingerprint(context.Background(), b)
	if fpA == fpB {
		t.Error("different content hashed identically")
	}
}

func TestFingerprintMissingFile(t *testing.T) {
	h := NewFrameHasher()
	if _, err := h.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "nope.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
