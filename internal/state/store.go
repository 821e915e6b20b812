package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/slopwatch/slopwatch/internal/types"
)

// Store reads and writes per-language project state files. Single-writer
// assumption: concurrent invocations against the same project/language are
// not supported and may race. That is a CLI-tool-level constraint, not a
// server-grade guarantee.
type Store struct {
	dir string
	log hclog.Logger
}

// NewStore creates a store rooted at the given state directory
// (normally <project>/.slopwatch).
func NewStore(dir string, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{dir: dir, log: log.Named("state")}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the state file path for a language.
func (s *Store) Path(lang string) string {
	return filepath.Join(s.dir, fmt.Sprintf("state-%s.json", lang))
}

func (s *Store) backupPath(lang string) string {
	return s.Path(lang) + ".bak"
}

// Load reads persisted state for a language. A missing file yields a fresh
// empty state, never an error. A corrupt file falls back to the backup; if
// the backup is also unusable the load fails with a PersistenceError rather
// than silently discarding history.
func (s *Store) Load(lang string) (*ProjectState, error) {
	path := s.Path(lang)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewProjectState(lang), nil
	}
	if err != nil {
		return nil, &types.PersistenceError{Path: path, Op: "read", Err: err}
	}

	st, parseErr := decodeState(data, lang)
	if parseErr == nil {
		return st, nil
	}

	backup, err := os.ReadFile(s.backupPath(lang))
	if err == nil {
		if st, err := decodeState(backup, lang); err == nil {
			s.log.Warn("state file corrupted, recovered from backup",
				"path", path, "error", parseErr)
			return st, nil
		}
	}
	return nil, &types.PersistenceError{Path: path, Op: "parse", Err: parseErr}
}

func decodeState(data []byte, lang string) (*ProjectState, error) {
	var st ProjectState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.Version > CurrentVersion {
		// Newer schema versions are additive; log-free tolerance keeps old
		// binaries readable against new files.
		st.Version = CurrentVersion
	}
	st.ensureDefaults(lang)
	return &st, nil
}

// Save writes state atomically: the previous file is copied to .bak, the new
// content goes to a temp file, and a rename commits it. A crash mid-write
// cannot corrupt the existing state file.
func (s *Store) Save(lang string, st *ProjectState) error {
	path := s.Path(lang)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &types.PersistenceError{Path: path, Op: "mkdir", Err: err}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return &types.PersistenceError{Path: path, Op: "encode", Err: err}
	}
	data = append(data, '\n')

	// Keep the previous state as a recovery backup (best effort).
	if prev, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(s.backupPath(lang), prev, 0644); err != nil {
			s.log.Warn("could not write state backup", "path", s.backupPath(lang), "error", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return &types.PersistenceError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &types.PersistenceError{Path: path, Op: "commit", Err: err}
	}
	return nil
}

// WithState is the scoped read-modify-write transaction: state is loaded,
// fn mutates it, and the result is saved only when fn returns nil. Any error
// discards the in-memory changes, so an interrupted run either commits fully
// or leaves prior state untouched.
func (s *Store) WithState(lang string, fn func(*ProjectState) error) error {
	st, err := s.Load(lang)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.Save(lang, st)
}

// Languages lists the languages that have persisted state in this store.
func (s *Store) Languages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.PersistenceError{Path: s.dir, Op: "list", Err: err}
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if len(name) > len("state-.json") && name[:6] == "state-" && filepath.Ext(name) == ".json" {
			langs = append(langs, name[6:len(name)-len(".json")])
		}
	}
	return langs, nil
}
