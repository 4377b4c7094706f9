package ports

import "reconx/internal/core/domain"

// ArtifactStore is the port for per-stage artifact persistence. It is the
// only shared mutable resource in the pipeline; all writes go through the
// atomic Put contract so callers need no extra locking.
type ArtifactStore interface {
	// Put commits an artifact atomically (write-to-temp + rename). On
	// failure the previous artifact, if any, is left untouched and the
	// error wraps errors.ErrStorage.
	Put(scopeID, stage string, artifact *domain.Artifact) error

	// Get loads a committed artifact. A missing artifact wraps
	// errors.ErrNotFound. Partial writes are never observable.
	Get(scopeID, stage string) (*domain.Artifact, error)

	// Exists reports whether a committed artifact is present. Used for
	// resume decisions.
	Exists(scopeID, stage string) bool

	// Stages lists the stage names with committed artifacts for a scope.
	Stages(scopeID string) ([]string, error)
}
