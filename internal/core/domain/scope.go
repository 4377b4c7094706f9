package domain

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope is the immutable set of target identifiers a run operates against.
// It is created once from the scope file and never mutated.
type Scope struct {
	// ID is a stable short hash of the sorted target list, used to
	// namespace artifacts on disk.
	ID string

	// Targets are the normalized, deduplicated root targets.
	Targets []string

	// Exclude lists domains filtered from every record set.
	Exclude []string
}

// LoadScope reads a scope file (one target per line, # comments and blank
// lines skipped) and builds a validated Scope.
func LoadScope(path string, exclude []string) (*Scope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scope file: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scope file: %w", err)
	}

	return NewScope(targets, exclude)
}

// NewScope normalizes, deduplicates and validates the target list.
// Targets must be registrable domains (checked against the public suffix
// list) or literal IP addresses.
func NewScope(targets, exclude []string) (*Scope, error) {
	if len(targets) == 0 {
		return nil, ErrEmptyScope
	}

	seen := make(map[string]bool, len(targets))
	normalized := make([]string, 0, len(targets))
	for _, raw := range targets {
		t := normalizeHost(raw)
		if t == "" || seen[t] {
			continue
		}
		if err := validateTarget(t); err != nil {
			return nil, err
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	if len(normalized) == 0 {
		return nil, ErrEmptyScope
	}
	sort.Strings(normalized)

	excl := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e = normalizeHost(e); e != "" {
			excl = append(excl, e)
		}
	}
	sort.Strings(excl)

	return &Scope{
		ID:      scopeID(normalized),
		Targets: normalized,
		Exclude: excl,
	}, nil
}

func validateTarget(t string) error {
	if net.ParseIP(t) != nil {
		return nil
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(t); err != nil {
		return fmt.Errorf("%w: %q is not a registrable domain", ErrInvalidTarget, t)
	}
	return nil
}

// Contains reports whether a host belongs to the scope: equal to or a
// subdomain of a target, and not excluded.
func (s *Scope) Contains(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, e := range s.Exclude {
		if host == e || strings.HasSuffix(host, "."+e) {
			return false
		}
	}
	for _, t := range s.Targets {
		if host == t || strings.HasSuffix(host, "."+t) {
			return true
		}
	}
	return false
}

// Domains returns the scope targets that are domain names, skipping
// literal IP addresses. Subdomain enumeration tools take domains only.
func (s *Scope) Domains() []string {
	var out []string
	for _, t := range s.Targets {
		if net.ParseIP(t) == nil {
			out = append(out, t)
		}
	}
	return out
}

// String returns a short human-readable description.
func (s *Scope) String() string {
	return fmt.Sprintf("Scope{id=%s, targets=%d}", s.ID, len(s.Targets))
}

func scopeID(targets []string) string {
	h := sha256.New()
	for _, t := range targets {
		h.Write([]byte(t))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
