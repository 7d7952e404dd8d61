package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opsmaestro/maestro/pkg/version"
)

// ErrNotFound is returned when a session does not exist. Session ids
// containing path separators are treated as not found rather than ever
// touching the filesystem.
var ErrNotFound = errors.New("session not found")

// titleLimit is the number of runes of the first user message kept as
// the session title.
const titleLimit = 50

// Store is a JSON-file session store with a write-through cache.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Session
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default(),
		cache:  make(map[string]*Session),
	}, nil
}

// AddMessage appends a message to a session, creating the session when
// it does not exist yet. The first user message of an untitled session
// becomes its title. The updated session is persisted before returning.
func (s *Store) AddMessage(userID, sessionID, role, content string) (*Session, error) {
	if !validID(sessionID) {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache[sessionID]
	if !ok {
		loaded, err := s.load(sessionID)
		switch {
		case err == nil:
			sess = loaded
		case errors.Is(err, os.ErrNotExist):
			now := time.Now().UTC()
			sess = &Session{
				SessionID: sessionID,
				UserID:    userID,
				AppName:   version.AppName,
				CreatedAt: now,
				UpdatedAt: now,
				Messages:  []Message{},
				Metadata:  map[string]any{},
			}
		default:
			return nil, err
		}
	}

	// Mutate a copy; the cache only sees the new message once the disk
	// write has succeeded.
	updated := sess.Clone()
	now := time.Now().UTC()
	updated.Messages = append(updated.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if updated.Title == "" && role == RoleUser {
		updated.Title = makeTitle(content)
	}
	updated.UpdatedAt = now

	if err := s.save(updated); err != nil {
		return nil, err
	}
	s.cache[sessionID] = updated
	return updated.Clone(), nil
}

// Get returns a session by id.
func (s *Store) Get(sessionID string) (*Session, error) {
	if !validID(sessionID) {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	sess, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache[sessionID]; ok {
		return sess.Clone(), nil
	}
	loaded, err := s.load(sessionID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache[sessionID] = loaded
	return loaded.Clone(), nil
}

// List returns all sessions, newest first by update time. A non-empty
// userID filters to that user's sessions. Unreadable files are skipped
// with a warning, never deleted.
func (s *Store) List(userID string) ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.Get(id)
		if err != nil {
			s.logger.Warn("Skipping unreadable session file",
				"file", entry.Name(), "error", err)
			continue
		}
		if userID != "" && sess.UserID != userID {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete removes a session from cache and disk.
func (s *Store) Delete(sessionID string) error {
	if !validID(sessionID) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, cached := s.cache[sessionID]
	delete(s.cache, sessionID)

	err := os.Remove(s.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		if cached {
			return nil
		}
		return ErrNotFound
	}
	return err
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// load reads a session file. Callers hold the write lock.
func (s *Store) load(sessionID string) (*Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// save writes a session atomically via a temp file rename.
func (s *Store) save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.SessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, sess.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(sess.SessionID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session %s: %w", sess.SessionID, err)
	}
	return nil
}

// validID rejects ids that could escape the sessions directory.
func validID(id string) bool {
	if id == "" {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

// makeTitle derives a session title from its first user message.
func makeTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "…"
}
