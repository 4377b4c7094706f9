package domain_test

import (
	. "reconx/internal/core/domain"

	"os"
	"path/filepath"
	"testing"

	"reconx/internal/testutil"
)

func TestNewScope(t *testing.T) {
	t.Run("normalizes and deduplicates targets", func(t *testing.T) {
		s, err := NewScope([]string{"Example.COM.", "example.com", "other.org"}, nil)

		testutil.AssertNoError(t, err, "scope build")
		testutil.AssertLen(t, len(s.Targets), 2, "duplicates removed")
		testutil.AssertEqual(t, s.Targets[0], "example.com", "targets sorted")
		testutil.AssertEqual(t, s.Targets[1], "other.org", "targets sorted")
	})

	t.Run("id is stable across input order", func(t *testing.T) {
		a, err := NewScope([]string{"a.com", "b.com"}, nil)
		testutil.AssertNoError(t, err, "scope a")
		b, err := NewScope([]string{"b.com", "a.com", "A.COM"}, nil)
		testutil.AssertNoError(t, err, "scope b")

		testutil.AssertEqual(t, a.ID, b.ID, "same target set must give same scope id")
	})

	t.Run("rejects empty scope", func(t *testing.T) {
		_, err := NewScope(nil, nil)
		testutil.AssertTrue(t, err == ErrEmptyScope, "empty scope error")
	})

	t.Run("rejects non-registrable target", func(t *testing.T) {
		_, err := NewScope([]string{"not a domain"}, nil)
		testutil.AssertError(t, err, "invalid target should fail")
	})

	t.Run("accepts ip targets", func(t *testing.T) {
		s, err := NewScope([]string{"192.0.2.10"}, nil)
		testutil.AssertNoError(t, err, "ip target")
		testutil.AssertEqual(t, s.Targets[0], "192.0.2.10", "ip kept")
	})
}

func TestLoadScope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scope.txt")
	content := "# staging scope\nexample.com\n\nExample.COM\nother.org\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scope file: %v", err)
	}

	s, err := LoadScope(path, []string{"Internal.Example.com"})
	testutil.AssertNoError(t, err, "load scope")
	testutil.AssertLen(t, len(s.Targets), 2, "comments and blanks skipped, dupes removed")
	testutil.AssertEqual(t, s.Exclude[0], "internal.example.com", "exclusions normalized")

	_, err = LoadScope(filepath.Join(dir, "missing.txt"), nil)
	testutil.AssertError(t, err, "missing scope file")
}

func TestScopeContains(t *testing.T) {
	s, err := NewScope([]string{"example.com"}, []string{"internal.example.com"})
	testutil.AssertNoError(t, err, "scope build")

	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"app.example.com", true},
		{"APP.Example.com.", true},
		{"deep.api.example.com", true},
		{"internal.example.com", false},
		{"db.internal.example.com", false},
		{"otherexample.com", false},
		{"example.org", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			testutil.AssertEqual(t, s.Contains(tt.host), tt.want, "scope membership")
		})
	}
}
