package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
	"reconx/internal/testutil"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(t.TempDir(), logx.NewSilent())
	testutil.AssertNoError(t, err, "create store")
	return s
}

func testArtifact(scopeID, stage string, hosts ...string) *domain.Artifact {
	records := make([]domain.Record, 0, len(hosts))
	for _, h := range hosts {
		records = append(records, domain.NewRecord(domain.RecordTypeHost, h, "test"))
	}
	return domain.NewArtifact(scopeID, stage, records)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := testArtifact("abc123", "subdomains", "a.example.com", "b.example.com")
	in.AddWarning("amass", "timed out")
	in.AddTiming("subfinder", 0, 2)

	err := s.Put("abc123", "subdomains", in)
	testutil.AssertNoError(t, err, "put")

	out, err := s.Get("abc123", "subdomains")
	testutil.AssertNoError(t, err, "get")

	testutil.AssertEqual(t, out.Scope, "abc123", "scope id")
	testutil.AssertEqual(t, out.Stage, "subdomains", "stage")
	testutil.AssertLen(t, len(out.Records), 2, "records")
	testutil.AssertEqual(t, out.Records[0].Value, "a.example.com", "first record")
	testutil.AssertLen(t, len(out.Warnings), 1, "warnings survive")
	testutil.AssertLen(t, len(out.Timings), 1, "timings survive")
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("abc123", "subdomains")

	testutil.AssertError(t, err, "missing artifact")
	testutil.AssertTrue(t, errors.IsNotFound(err), "wraps ErrNotFound")
}

func TestExists(t *testing.T) {
	s := newTestStore(t)

	testutil.AssertFalse(t, s.Exists("abc123", "subdomains"), "initially absent")

	err := s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "a.example.com"))
	testutil.AssertNoError(t, err, "put")

	testutil.AssertTrue(t, s.Exists("abc123", "subdomains"), "present after put")
	testutil.AssertFalse(t, s.Exists("abc123", "resolve"), "other stage absent")
}

func TestStages(t *testing.T) {
	s := newTestStore(t)

	stages, err := s.Stages("abc123")
	testutil.AssertNoError(t, err, "empty scope")
	testutil.AssertLen(t, len(stages), 0, "no stages yet")

	for _, stage := range []string{"resolve", "subdomains", "probe"} {
		err := s.Put("abc123", stage, testArtifact("abc123", stage, "a.example.com"))
		testutil.AssertNoError(t, err, "put "+stage)
	}

	stages, err = s.Stages("abc123")
	testutil.AssertNoError(t, err, "list stages")
	testutil.AssertLen(t, len(stages), 3, "three stages")
	testutil.AssertEqual(t, stages[0], "probe", "sorted order")
	testutil.AssertEqual(t, stages[1], "resolve", "sorted order")
	testutil.AssertEqual(t, stages[2], "subdomains", "sorted order")
}

func TestPutReplacesAtomically(t *testing.T) {
	s := newTestStore(t)

	err := s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "old.example.com"))
	testutil.AssertNoError(t, err, "first put")

	err = s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "new.example.com"))
	testutil.AssertNoError(t, err, "second put")

	out, err := s.Get("abc123", "subdomains")
	testutil.AssertNoError(t, err, "get")
	testutil.AssertLen(t, len(out.Records), 1, "replaced, not appended")
	testutil.AssertEqual(t, out.Records[0].Value, "new.example.com", "new content")

	// No stray temp files after the rename.
	entries, err := os.ReadDir(filepath.Join(s.Root(), "abc123"))
	testutil.AssertNoError(t, err, "read scope dir")
	for _, e := range entries {
		testutil.AssertFalse(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: "+e.Name())
	}
}

func TestDeterministicSerialization(t *testing.T) {
	s := newTestStore(t)

	// Same records in different arrival order must produce byte-identical
	// committed files, header included.
	a := domain.NewArtifact("abc123", "subdomains", []domain.Record{
		domain.NewRecord(domain.RecordTypeHost, "b.example.com", "subfinder"),
		domain.NewRecord(domain.RecordTypeHost, "a.example.com", "subfinder"),
	})
	b := domain.NewArtifact("abc123", "subdomains", []domain.Record{
		domain.NewRecord(domain.RecordTypeHost, "a.example.com", "subfinder"),
		domain.NewRecord(domain.RecordTypeHost, "b.example.com", "subfinder"),
	})

	testutil.AssertNoError(t, s.Put("abc123", "subdomains", a), "put a")
	first, err := os.ReadFile(s.Path("abc123", "subdomains"))
	testutil.AssertNoError(t, err, "read a")

	testutil.AssertNoError(t, s.Put("abc123", "subdomains", b), "put b")
	second, err := os.ReadFile(s.Path("abc123", "subdomains"))
	testutil.AssertNoError(t, err, "read b")

	testutil.AssertTrue(t, bytes.Equal(first, second),
		"committed files byte-identical regardless of arrival order")
}

func TestGetRestoresCreatedAtFromCommitTime(t *testing.T) {
	s := newTestStore(t)

	err := s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "a.example.com"))
	testutil.AssertNoError(t, err, "put")

	out, err := s.Get("abc123", "subdomains")
	testutil.AssertNoError(t, err, "get")
	testutil.AssertFalse(t, out.CreatedAt.IsZero(), "created at set from file")
}

func TestPartialTempFileNeverCorruptsGet(t *testing.T) {
	s := newTestStore(t)

	err := s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "a.example.com"))
	testutil.AssertNoError(t, err, "put")

	// A crash mid-write leaves a partial temp file next to the target.
	// It must be invisible to Get, Exists and Stages.
	partial := filepath.Join(s.Root(), "abc123", "subdomains.tmp-crashed")
	err = os.WriteFile(partial, []byte(`{"scope":"abc123","st`), 0o644)
	testutil.AssertNoError(t, err, "plant partial temp file")

	out, err := s.Get("abc123", "subdomains")
	testutil.AssertNoError(t, err, "get after crash")
	testutil.AssertLen(t, len(out.Records), 1, "prior artifact intact")
	testutil.AssertEqual(t, out.Records[0].Value, "a.example.com", "prior content")

	testutil.AssertTrue(t, s.Exists("abc123", "subdomains"), "exists unaffected")

	stages, err := s.Stages("abc123")
	testutil.AssertNoError(t, err, "list stages")
	testutil.AssertLen(t, len(stages), 1, "temp file not listed as a stage")
	testutil.AssertEqual(t, stages[0], "subdomains", "only the committed stage")
}

func TestNDJSONLayout(t *testing.T) {
	s := newTestStore(t)

	err := s.Put("abc123", "subdomains", testArtifact("abc123", "subdomains", "a.example.com", "b.example.com"))
	testutil.AssertNoError(t, err, "put")

	data, err := os.ReadFile(s.Path("abc123", "subdomains"))
	testutil.AssertNoError(t, err, "read file")

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	testutil.AssertLen(t, len(lines), 3, "header plus one line per record")
	testutil.AssertContains(t, lines[0], `"stage":"subdomains"`, "header carries stage")
	testutil.AssertContains(t, lines[1], `"type":"host"`, "record line is typed")
}
