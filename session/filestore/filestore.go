// Package filestore persists session values in a JSON file, optionally sealed with
// nacl/secretbox so tokens are not readable at rest.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/session"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var _ session.Store = (*Store)(nil)

type fileContents struct {
	Values map[session.Key]string `json:"values,omitempty"`
	Sealed string                 `json:"sealed,omitempty"`
}

type Store struct {
	path string
	key  *[32]byte
	mu   sync.Mutex
}

type Option func(*Store)

// WithKey seals the file contents with the given secretbox key.
func WithKey(key *[32]byte) Option {
	return func(s *Store) {
		s.key = key
	}
}

// KeyFromBase64 decodes a standard base64 string holding exactly 32 bytes.
func KeyFromBase64(encoded string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSessionKey, "%v", err)
	}
	if len(raw) != 32 {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSessionKey, "need 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func New(path string, options ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key session.Key) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key session.Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *Store) Clear(_ context.Context, keys ...session.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(values)
}

func (s *Store) load() (map[session.Key]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[session.Key]string), nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "%s: %v", s.path, err)
	}
	if contents.Sealed != "" {
		return s.open(contents.Sealed)
	}
	if contents.Values == nil {
		contents.Values = make(map[session.Key]string)
	}
	return contents.Values, nil
}

func (s *Store) open(sealed string) (map[session.Key]string, error) {
	if s.key == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSessionKey, "%s is sealed and no session key is configured", s.path)
	}
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceSize {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "%s: bad sealed payload", s.path)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSessionKey, "%s cannot be opened with the configured key", s.path)
	}
	values := make(map[session.Key]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "%s: %v", s.path, err)
	}
	return values, nil
}

func (s *Store) save(values map[session.Key]string) error {
	contents := fileContents{Values: values}
	if s.key != nil {
		plain, err := json.Marshal(values)
		if err != nil {
			return err
		}
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("generating nonce: %w", err)
		}
		box := secretbox.Seal(nonce[:], plain, &nonce, s.key)
		contents = fileContents{Sealed: base64.StdEncoding.EncodeToString(box)}
	}

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}
