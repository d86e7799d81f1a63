package identity

import (
	"testing"

	"github.com/google/uuid"
)

// maxIdentifierLength is the longest base-36 rendering of a 64-bit value.
const maxIdentifierLength = 13

func isASCIIAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		default:
			return false
		}
	}
	return true
}

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := Generate()
		if id == "" {
			t.Fatal("Generate() returned empty identifier")
		}
		if len(id) > maxIdentifierLength {
			t.Fatalf("Generate() = %q, length %d exceeds %d", id, len(id), maxIdentifierLength)
		}
		if !isASCIIAlphanumeric(id) {
			t.Fatalf("Generate() = %q, contains non-alphanumeric characters", id)
		}
	}
}

func TestGenerateSuccessiveValuesDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("Generate() produced duplicate %q within 1000 calls", id)
		}
		seen[id] = true
	}
}

func TestFoldDeterministic(t *testing.T) {
	u := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	if fold(u) != fold(u) {
		t.Error("fold() is not deterministic for the same UUID")
	}

	other := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	if fold(u) == fold(other) {
		t.Error("fold() collided for trivially different UUIDs")
	}
}
