// Package store persists stage artifacts as NDJSON files under the output
// directory, one file per (scope, stage). The first line is the artifact
// header; every following line is one record. Writes are atomic: the file
// is staged in a temp path and renamed into place, so readers either see
// the previous complete artifact or the new one, never a partial write.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

const artifactExt = ".ndjson"

// FSStore implements ports.ArtifactStore on the local filesystem.
type FSStore struct {
	root   string
	logger logx.Logger
}

// NewFSStore creates a store rooted at dir, creating it if needed.
func NewFSStore(dir string, logger logx.Logger) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrStorage, "create output dir %s: %v", dir, err)
	}
	return &FSStore{root: dir, logger: logger.With("component", "store")}, nil
}

// Root returns the store's base directory.
func (s *FSStore) Root() string {
	return s.root
}

// Path returns the artifact file path for a scope and stage.
func (s *FSStore) Path(scopeID, stage string) string {
	return filepath.Join(s.root, scopeID, stage+artifactExt)
}

// Put writes the artifact atomically. The temp file lives in the same
// directory as the target so the rename never crosses filesystems.
func (s *FSStore) Put(scopeID, stage string, artifact *domain.Artifact) error {
	dir := filepath.Join(s.root, scopeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrStorage, "create scope dir %s: %v", dir, err)
	}

	data, err := encode(artifact)
	if err != nil {
		return errors.Wrapf(errors.ErrStorage, "encode artifact %s/%s: %v", scopeID, stage, err)
	}

	tmp, err := os.CreateTemp(dir, stage+".tmp-*")
	if err != nil {
		return errors.Wrapf(errors.ErrStorage, "create temp file: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(errors.ErrStorage, "write artifact %s/%s: %v", scopeID, stage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(errors.ErrStorage, "close artifact %s/%s: %v", scopeID, stage, err)
	}

	target := s.Path(scopeID, stage)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(errors.ErrStorage, "commit artifact %s/%s: %v", scopeID, stage, err)
	}

	s.logger.Debug("artifact committed", "stage", stage, "records", len(artifact.Records), "path", target)
	return nil
}

// Get loads a committed artifact. The artifact's CreatedAt is not part of
// the committed bytes; it is restored from the file's modification time.
func (s *FSStore) Get(scopeID, stage string) (*domain.Artifact, error) {
	path := s.Path(scopeID, stage)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "artifact %s/%s", scopeID, stage)
		}
		return nil, errors.Wrapf(errors.ErrStorage, "read artifact %s/%s: %v", scopeID, stage, err)
	}

	artifact, err := decode(data)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStorage, "decode artifact %s/%s: %v", scopeID, stage, err)
	}
	if info, err := os.Stat(path); err == nil {
		artifact.CreatedAt = info.ModTime().UTC()
	}
	return artifact, nil
}

// Exists reports whether a committed artifact is present.
func (s *FSStore) Exists(scopeID, stage string) bool {
	info, err := os.Stat(s.Path(scopeID, stage))
	return err == nil && !info.IsDir()
}

// Stages lists the stages with committed artifacts for a scope, sorted.
func (s *FSStore) Stages(scopeID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, scopeID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrStorage, "list scope %s: %v", scopeID, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, artifactExt))
	}
	sort.Strings(out)
	return out, nil
}

// encode renders the NDJSON form: header line then one record per line.
func encode(a *domain.Artifact) ([]byte, error) {
	var buf bytes.Buffer

	header, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for _, r := range a.Records {
		line, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*domain.Artifact, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, errors.New("empty artifact file")
	}
	var artifact domain.Artifact
	if err := json.Unmarshal(scanner.Bytes(), &artifact); err != nil {
		return nil, err
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var r domain.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		artifact.Records = append(artifact.Records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &artifact, nil
}
