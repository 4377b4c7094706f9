package domain_test

import (
	. "reconx/internal/core/domain"

	"testing"

	"reconx/internal/testutil"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name  string
		typ   RecordType
		input string
		want  string
	}{
		{"host lowercased", RecordTypeHost, "APP.Example.COM", "app.example.com"},
		{"host trailing dot stripped", RecordTypeHost, "app.example.com.", "app.example.com"},
		{"host wildcard stripped", RecordTypeHost, "*.example.com", "example.com"},
		{"host whitespace trimmed", RecordTypeHost, "  app.example.com \n", "app.example.com"},
		{"ip canonical form", RecordTypeIP, "001.2.3.4", "1.2.3.4"},
		{"ipv6 canonical form", RecordTypeIP, "2001:0db8::0001", "2001:db8::1"},
		{"port host folded", RecordTypePort, "App.Example.com:443", "app.example.com:443"},
		{"url host folded path kept", RecordTypeURL, "HTTPS://App.Example.com/Admin?Q=1", "https://app.example.com/Admin?Q=1"},
		{"url without path", RecordTypeURL, "https://App.Example.com", "https://app.example.com"},
		{"endpoint same rule as url", RecordTypeEndpoint, "http://Example.com./login", "http://example.com/login"},
		{"technology lowercased", RecordTypeTechnology, "Apache", "apache"},
		{"finding kept verbatim", RecordTypeFinding, "exposed-panel@https://x.example.com", "exposed-panel@https://x.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, NormalizeValue(tt.typ, tt.input), tt.want, "normalized value")
		})
	}
}

func TestRecordKey(t *testing.T) {
	a := NewRecord(RecordTypeHost, "App.Example.COM.", "subfinder")
	b := NewRecord(RecordTypeHost, "app.example.com", "amass")

	testutil.AssertEqual(t, a.Key(), b.Key(), "case variants should share an identity key")
	testutil.AssertEqual(t, a.Key(), "host:app.example.com", "key format")

	c := NewRecord(RecordTypeURL, "app.example.com", "gau")
	testutil.AssertNotEqual(t, a.Key(), c.Key(), "same value under different type is a different record")
}

func TestRecordIsValid(t *testing.T) {
	testutil.AssertTrue(t, NewRecord(RecordTypeHost, "a.example.com", "x").IsValid(), "valid record")
	testutil.AssertFalse(t, Record{Type: RecordTypeHost}.IsValid(), "empty value is invalid")
	testutil.AssertFalse(t, Record{Type: "bogus", Value: "x"}.IsValid(), "unknown type is invalid")
}

func TestMergeRecords(t *testing.T) {
	t.Run("union is deduplicated and sorted", func(t *testing.T) {
		// Two enumerators overlapping on app.example.com.
		first := []Record{
			NewRecord(RecordTypeHost, "app.example.com", "subfinder"),
		}
		second := []Record{
			NewRecord(RecordTypeHost, "api.example.com", "assetfinder"),
			NewRecord(RecordTypeHost, "app.example.com", "assetfinder"),
		}

		merged := MergeRecords(first, second)

		testutil.AssertLen(t, len(merged), 2, "duplicates collapsed")
		testutil.AssertEqual(t, merged[0].Value, "api.example.com", "sorted first value")
		testutil.AssertEqual(t, merged[1].Value, "app.example.com", "sorted second value")
		testutil.AssertEqual(t, merged[1].Source, "subfinder", "first occurrence wins on merge")
	})

	t.Run("deterministic regardless of per-batch completion order", func(t *testing.T) {
		batchA := []Record{
			NewRecord(RecordTypeHost, "z.example.com", "subfinder"),
			NewRecord(RecordTypeHost, "a.example.com", "subfinder"),
		}
		batchB := []Record{
			NewRecord(RecordTypeHost, "m.example.com", "amass"),
		}

		first := MergeRecords(batchA, batchB)
		second := MergeRecords(batchA, batchB)

		testutil.AssertLen(t, len(first), 3, "merged size")
		for i := range first {
			testutil.AssertEqual(t, first[i], second[i], "merge order must be reproducible")
		}
		testutil.AssertTrue(t, first[0].Key() < first[1].Key() && first[1].Key() < first[2].Key(), "lexicographic key order")
	})

	t.Run("invalid records dropped", func(t *testing.T) {
		merged := MergeRecords([]Record{
			{Type: RecordTypeHost, Value: ""},
			NewRecord(RecordTypeHost, "ok.example.com", "x"),
		})
		testutil.AssertLen(t, len(merged), 1, "only the valid record survives")
	})
}
