package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNew(t *testing.T) {
	t.Run("generates_version_7", func(t *testing.T) {
		id := New()
		parsed, err := googleuuid.Parse(id)
		if err != nil {
			t.Fatalf("generated id %q is not a UUID: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("expected version 7, got %d", parsed.Version())
		}
	})

	t.Run("unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			id := New()
			if seen[id] {
				t.Fatalf("duplicate id generated: %s", id)
			}
			seen[id] = true
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("canonicalizes_upper_case", func(t *testing.T) {
		got, err := Parse("0190F2A4-7B3C-7D2E-8F00-112233445566")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0190f2a4-7b3c-7d2e-8f00-112233445566" {
			t.Errorf("unexpected canonical form %q", got)
		}
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		if _, err := Parse("not-a-uuid"); err == nil {
			t.Fatal("expected error")
		}
		if IsValid("") {
			t.Error("empty string should not be valid")
		}
	})
}
