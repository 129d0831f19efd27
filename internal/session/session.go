// Package session persists the local player identity across restarts.
package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Session is the one locally persisted value: who we are and, if set, the
// room we are in. Its lifecycle is independent from the room snapshot.
type Session struct {
	UserID   string `yaml:"userId"`
	Username string `yaml:"username"`
	RoomCode string `yaml:"roomCode,omitempty"`
}

// Store is a single-key cache backed by one YAML file. Every operation is
// synchronous and absorbs storage failures: a failed write or read is logged
// and leaves prior state (on disk and in callers) unchanged.
type Store struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

// DefaultPath resolves the session file location: the DRAWDASH_SESSION env
// var if set, otherwise the user config dir.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("DRAWDASH_SESSION")); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "drawdash-session.yaml")
	}
	return filepath.Join(base, "drawdash", "session.yaml")
}

func (s *Store) Save(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(sess)
}

// Load returns the persisted session, if any. A missing file is a normal
// "absent" result; a corrupt or unreadable file is logged and treated the
// same way.
func (s *Store) Load() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("session read failed")
		}
		return Session{}, false
	}
	var sess Session
	if err := yaml.Unmarshal(b, &sess); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session file corrupt")
		return Session{}, false
	}
	if strings.TrimSpace(sess.UserID) == "" {
		return Session{}, false
	}
	return sess, true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session clear failed")
	}
}

// SetRoomCode updates only the room code of an existing session. No-op when
// no session is persisted.
func (s *Store) SetRoomCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.loadLocked()
	if !ok {
		return
	}
	sess.RoomCode = code
	s.writeLocked(sess)
}

// IsInRoom reports whether a session exists and carries a room code.
func (s *Store) IsInRoom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.loadLocked()
	return ok && strings.TrimSpace(sess.RoomCode) != ""
}

func (s *Store) loadLocked() (Session, bool) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := yaml.Unmarshal(b, &sess); err != nil {
		return Session{}, false
	}
	if strings.TrimSpace(sess.UserID) == "" {
		return Session{}, false
	}
	return sess, true
}

func (s *Store) writeLocked(sess Session) {
	b, err := yaml.Marshal(sess)
	if err != nil {
		s.log.Warn().Err(err).Msg("session encode failed")
		return
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("session dir create failed")
			return
		}
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session write failed")
	}
}
