package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/headless/internal/log"
)

// Store persists sessions as one JSON file per session under a directory.
// Reads go through an expiring in-memory cache; writes are wholesale
// rewrites through a temp file rename so a crash never leaves a partial
// session on disk.
type Store struct {
	dir   string
	cache *gocache.Cache
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{
		dir:   dir,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads a session by name. Returns (nil, nil) when the session does
// not exist; a corrupt file is an error, never silently replaced.
func (s *Store) Load(name string) (*Session, error) {
	if cached, ok := s.cache.Get(name); ok {
		// Callers mutate loaded sessions; the cached copy must not be
		// shared between them.
		return cached.(*Session).clone(), nil
	}

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %q: %w", name, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session %q is corrupt: %w", name, err)
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	s.cache.SetDefault(name, sess.clone())
	return &sess, nil
}

// Save writes a session wholesale.
func (s *Store) Save(sess *Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %q: %w", sess.Name, err)
	}

	path := s.path(sess.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session %q: %w", sess.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write session %q: %w", sess.Name, err)
	}

	s.cache.SetDefault(sess.Name, sess.clone())
	log.Debug(log.CatSession, "session saved",
		"name", sess.Name, "turns", sess.TurnCount(), "totalCost", fmt.Sprintf("%.4f", sess.TotalCostUSD))
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(name string) error {
	s.cache.Delete(name)
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	return nil
}

// List returns all session names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(name string) string {
	// Session names become file names; path separators are not allowed.
	safe := strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}
