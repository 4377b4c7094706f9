// Package domain holds the core data model of the recon pipeline:
// scopes, typed discovery records, stage definitions and artifacts.
package domain

import (
	"net"
	"strings"
)

// RecordType classifies a discovery record.
type RecordType string

const (
	// RecordTypeHost is a discovered hostname (subdomain or apex).
	RecordTypeHost RecordType = "host"

	// RecordTypeIP is a resolved IP address.
	RecordTypeIP RecordType = "ip"

	// RecordTypeEndpoint is a live HTTP(S) endpoint.
	RecordTypeEndpoint RecordType = "endpoint"

	// RecordTypePort is an open port in host:port form.
	RecordTypePort RecordType = "port"

	// RecordTypeTechnology is a detected technology on an endpoint.
	RecordTypeTechnology RecordType = "technology"

	// RecordTypeURL is a discovered URL.
	RecordTypeURL RecordType = "url"

	// RecordTypeParameter is a discovered request parameter.
	RecordTypeParameter RecordType = "parameter"

	// RecordTypeFinding is a vulnerability scanner finding.
	RecordTypeFinding RecordType = "finding"
)

// IsValid reports whether the record type is one of the known kinds.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeHost, RecordTypeIP, RecordTypeEndpoint, RecordTypePort,
		RecordTypeTechnology, RecordTypeURL, RecordTypeParameter, RecordTypeFinding:
		return true
	default:
		return false
	}
}

func (t RecordType) String() string {
	return string(t)
}

// Record is one typed discovery produced by a tool adapter.
type Record struct {
	Type   RecordType        `json:"type"`
	Value  string            `json:"value"`
	Source string            `json:"source,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// NewRecord creates a record with its value normalized for its type.
func NewRecord(t RecordType, value, source string) Record {
	return Record{
		Type:   t,
		Value:  NormalizeValue(t, value),
		Source: source,
	}
}

// Key returns the identity key used for deduplication: type + normalized value.
func (r Record) Key() string {
	return string(r.Type) + ":" + r.Value
}

// IsValid reports whether the record carries usable data.
func (r Record) IsValid() bool {
	return r.Type.IsValid() && r.Value != ""
}

// NormalizeValue applies the per-type normalization rule. DNS-shaped values
// (hosts, host:port pairs, technology/parameter qualifiers on a host) are
// case-folded with the trailing dot stripped, so case variants of the same
// identifier collapse to one record. Paths and URL queries keep their case.
func NormalizeValue(t RecordType, v string) string {
	v = strings.TrimSpace(v)

	switch t {
	case RecordTypeHost:
		return normalizeHost(v)
	case RecordTypeIP:
		if ip := net.ParseIP(v); ip != nil {
			return ip.String()
		}
		return v
	case RecordTypePort:
		host, port, ok := strings.Cut(v, ":")
		if !ok {
			return strings.ToLower(v)
		}
		return normalizeHost(host) + ":" + port
	case RecordTypeEndpoint, RecordTypeURL:
		return normalizeURL(v)
	case RecordTypeTechnology:
		return strings.ToLower(v)
	case RecordTypeParameter:
		// host:param form; the parameter name itself stays case-sensitive.
		host, param, ok := strings.Cut(v, ":")
		if !ok {
			return v
		}
		return normalizeHost(host) + ":" + param
	default:
		return v
	}
}

func normalizeHost(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimSuffix(v, ".")
	v = strings.TrimPrefix(v, "*.")
	return v
}

// normalizeURL lowercases scheme and host but leaves path and query intact,
// since those may be case-sensitive on the server.
func normalizeURL(v string) string {
	scheme, rest, ok := strings.Cut(v, "://")
	if !ok {
		return v
	}
	hostEnd := strings.IndexAny(rest, "/?#")
	if hostEnd < 0 {
		return strings.ToLower(scheme) + "://" + normalizeHost(rest)
	}
	return strings.ToLower(scheme) + "://" + normalizeHost(rest[:hostEnd]) + rest[hostEnd:]
}
