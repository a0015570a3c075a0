package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MKhiriev/passvault/logger"
)

// FileStore is a [Store] that keeps all blobs in a single JSON document on
// the local filesystem. The whole document is loaded into memory on open and
// rewritten on every mutation, which is plenty for a vault holding hundreds
// of records.
//
// Writes go through a temporary file in the same directory followed by an
// atomic rename, so a crash mid-write never leaves a truncated vault behind.
// The file is created with 0600 permissions: blobs are ciphertext already,
// but there is no reason to share them with other users on the machine.
type FileStore struct {
	path string
	log  *logger.Logger

	mu    sync.Mutex
	blobs map[string]string
}

type filePersistedState struct {
	Blobs map[string]string `json:"blobs"`
}

// NewFileStore opens (or initialises) the JSON document at path. A missing
// file is not an error: the store starts empty and the file appears on the
// first write. A present but unreadable or malformed file is an error, since
// silently starting empty would shadow the user's existing vault.
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.Nop()
	}

	s := &FileStore{
		path:  path,
		log:   log,
		blobs: make(map[string]string),
	}

	if err := s.load(); err != nil {
		log.Err(err).Str("func", "NewFileStore").Str("path", path).Msg("error loading storage file")
		return nil, err
	}

	return s, nil
}

// Get implements [Store].
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.blobs[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set implements [Store].
func (s *FileStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.blobs[key]
	s.blobs[key] = value

	if err := s.persist(); err != nil {
		// roll the in-memory state back so memory and disk stay in step
		if existed {
			s.blobs[key] = previous
		} else {
			delete(s.blobs, key)
		}
		return err
	}

	return nil
}

// Delete implements [Store].
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.blobs[key]
	if !existed {
		return nil
	}
	delete(s.blobs, key)

	if err := s.persist(); err != nil {
		s.blobs[key] = previous
		return err
	}

	return nil
}

// Close implements [Store]. All mutations are flushed eagerly, so there is
// nothing left to write here.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: read storage file: %w", ErrStorage, err)
	}

	var st filePersistedState
	if err = json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: decode storage file: %w", ErrStorage, err)
	}

	if st.Blobs == nil {
		st.Blobs = make(map[string]string)
	}
	s.blobs = st.Blobs

	return nil
}

func (s *FileStore) persist() error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create storage dir: %w", ErrStorage, err)
		}
	}

	payload, err := json.MarshalIndent(filePersistedState{Blobs: s.blobs}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode storage state: %w", ErrStorage, err)
	}

	// write-then-rename keeps the previous document intact if we crash here
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %w", ErrStorage, err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: chmod temp file: %w", ErrStorage, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %w", ErrStorage, err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace storage file: %w", ErrStorage, err)
	}

	return nil
}
