package secrets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// fileDocument is the on-disk shape shared by both file stores: a flat
// string map plus a bool map for flags.
type fileDocument struct {
	Values map[string]string `json:"values"`
	Flags  map[string]bool   `json:"flags,omitempty"`
}

// fileStore is a mutex-serialized JSON document rewritten atomically on
// every mutation. It backs both FileSecretStore and FileKVStore.
type fileStore struct {
	path string
	mu   sync.Mutex
	doc  fileDocument
}

func openFileStore(path string) (*fileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}

	s := &fileStore{
		path: path,
		doc:  fileDocument{Values: map[string]string{}, Flags: map[string]bool{}},
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(payload) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(payload, &s.doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if s.doc.Values == nil {
		s.doc.Values = map[string]string{}
	}
	if s.doc.Flags == nil {
		s.doc.Flags = map[string]bool{}
	}

	return s, nil
}

// flush rewrites the document via temp file + rename. Callers hold the lock.
func (s *fileStore) flush() error {
	payload, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode store document")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return errors.Wrap(err, "write store temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist store document")
	}

	return nil
}

func (s *fileStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Values[key] = value
	return s.flush()
}

func (s *fileStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.doc.Values[key]
	return v, ok
}

func (s *fileStore) delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Values[key]; !ok {
		return nil
	}
	delete(s.doc.Values, key)
	return s.flush()
}

func (s *fileStore) setBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Flags[key] = value
	return s.flush()
}

func (s *fileStore) getBool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.Flags[key]
}

// FileSecretStore is a file-backed SecretStore. It stands in for the
// OS-level secure storage, which is outside this system's scope.
type FileSecretStore struct {
	fs *fileStore
}

// NewFileSecretStore opens (or creates) the secret store at path.
// An unreadable or corrupt backing file is a fatal configuration error.
func NewFileSecretStore(path string) (*FileSecretStore, error) {
	fs, err := openFileStore(path)
	if err != nil {
		return nil, errors.Wrap(err, "open secret store")
	}
	return &FileSecretStore{fs: fs}, nil
}

func (s *FileSecretStore) Set(key, value string) error { return s.fs.set(key, value) }

func (s *FileSecretStore) Get(key string) (string, bool) { return s.fs.get(key) }

func (s *FileSecretStore) Delete(key string) error { return s.fs.delete(key) }

// FileKVStore is a file-backed KVStore for the account index and flags.
type FileKVStore struct {
	fs *fileStore
}

// NewFileKVStore opens (or creates) the key-value store at path.
func NewFileKVStore(path string) (*FileKVStore, error) {
	fs, err := openFileStore(path)
	if err != nil {
		return nil, errors.Wrap(err, "open key-value store")
	}
	return &FileKVStore{fs: fs}, nil
}

func (s *FileKVStore) SetBytes(key string, value []byte) error {
	return s.fs.set(key, string(value))
}

func (s *FileKVStore) GetBytes(key string) ([]byte, bool) {
	v, ok := s.fs.get(key)
	if !ok {
		return nil, false
	}
	return []byte(v), true
}

func (s *FileKVStore) SetBool(key string, value bool) error {
	return s.fs.setBool(key, value)
}

func (s *FileKVStore) GetBool(key string) bool {
	return s.fs.getBool(key)
}
