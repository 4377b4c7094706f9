package tools

import (
	"net/url"
	"strings"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/registry"
)

// adapterMeta fetches the metadata an adapter registered with. Metadata is
// declared once at registration so Build, doctor and the adapters agree.
func adapterMeta(name string) ports.AdapterMetadata {
	meta, _ := registry.Global().GetMetadata(name)
	return meta
}

// hostOf extracts the hostname from a URL, or returns the input when it is
// already a bare host.
func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		host, _, _ := strings.Cut(raw, "/")
		host, _, _ = strings.Cut(host, ":")
		return strings.ToLower(host)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// inScope reports whether a host or URL belongs to the adapter's scope.
// Adapters that wrap broad OSINT tools use it to drop out-of-scope noise.
func inScope(scope *domain.Scope, hostOrURL string) bool {
	if scope == nil {
		return true
	}
	h := hostOf(hostOrURL)
	return h != "" && scope.Contains(h)
}

// queryParams returns the parameter names of a URL's query string.
func queryParams(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		name, _, _ := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// firstField returns the first whitespace-separated token of a line.
func firstField(line string) string {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}
