package domain_test

import (
	. "reconx/internal/core/domain"

	"testing"
	"time"

	"reconx/internal/testutil"
)

func TestNewArtifact(t *testing.T) {
	records := []Record{
		NewRecord(RecordTypeHost, "b.example.com", "subfinder"),
		NewRecord(RecordTypeHost, "a.example.com", "amass"),
		NewRecord(RecordTypeHost, "b.example.com", "amass"),
	}

	a := NewArtifact("scope1", "subdomains", records)

	testutil.AssertEqual(t, a.Scope, "scope1", "scope id")
	testutil.AssertEqual(t, a.Stage, "subdomains", "stage name")
	testutil.AssertLen(t, len(a.Records), 2, "records merged on construction")
	testutil.AssertEqual(t, a.Records[0].Value, "a.example.com", "canonical order")
}

func TestArtifactValues(t *testing.T) {
	a := NewArtifact("s", "resolve", []Record{
		NewRecord(RecordTypeHost, "b.example.com", "dnsx"),
		NewRecord(RecordTypeHost, "a.example.com", "dnsx"),
		NewRecord(RecordTypeIP, "192.0.2.1", "dnsx"),
	})

	hosts := a.Values(RecordTypeHost)
	testutil.AssertLen(t, len(hosts), 2, "hosts only")
	testutil.AssertEqual(t, hosts[0], "a.example.com", "sorted values")

	all := a.Values()
	testutil.AssertLen(t, len(all), 3, "no filter returns everything")

	none := a.Values(RecordTypeFinding)
	testutil.AssertLen(t, len(none), 0, "missing type yields empty slice")
}

func TestArtifactWarningsAndTimings(t *testing.T) {
	a := NewArtifact("s", "subdomains", nil)
	a.AddWarning("amass", "exit status 1")
	a.AddTiming("subfinder", 1500*time.Millisecond, 12)

	testutil.AssertLen(t, len(a.Warnings), 1, "warning recorded")
	testutil.AssertEqual(t, a.Warnings[0].Tool, "amass", "warning tool")
	testutil.AssertEqual(t, a.Timings[0].DurationMS, int64(1500), "timing in ms")
	testutil.AssertEqual(t, a.Timings[0].Records, 12, "timing record count")
}

func TestArtifactCountByType(t *testing.T) {
	a := NewArtifact("s", "probe", []Record{
		NewRecord(RecordTypeEndpoint, "https://a.example.com", "httpx"),
		NewRecord(RecordTypeEndpoint, "https://b.example.com", "httpx"),
		NewRecord(RecordTypeTechnology, "nginx", "httpx"),
	})

	counts := a.CountByType()
	testutil.AssertEqual(t, counts[RecordTypeEndpoint], 2, "endpoint count")
	testutil.AssertEqual(t, counts[RecordTypeTechnology], 1, "technology count")
}
