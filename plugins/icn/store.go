package icn

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Descriptor describes a plugin file the server has loaded.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	ConfigClass string `json:"configClass"`
}

// PluginConfig is a saved plugin configuration, as posted in json_post.
type PluginConfig struct {
	Enabled      bool     `json:"enabled"`
	Filename     string   `json:"filename"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies"`
	Name         string   `json:"name"`
	ID           string   `json:"id"`
	ConfigClass  string   `json:"configClass"`
}

// Session is a logged-on user.
type Session struct {
	ID    string
	User  string
	Token string
}

// Store holds in-memory state for the fake ICN server.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	staged   map[string]Descriptor // by plugin id
	saved    map[string]PluginConfig
	logons   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		staged:   make(map[string]Descriptor),
		saved:    make(map[string]PluginConfig),
	}
}

// Reset clears all state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
	s.staged = make(map[string]Descriptor)
	s.saved = make(map[string]PluginConfig)
	s.logons = 0
}

// Logon opens a session for user with a fresh id and security token.
func (s *Store) Logon(user string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ID:    uuid.NewString(),
		User:  user,
		Token: uuid.NewString(),
	}
	s.sessions[sess.ID] = sess
	s.logons++
	return sess
}

// Authorize returns the session id belongs to if token matches it.
func (s *Store) Authorize(id, token string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || token == "" || sess.Token != token {
		return nil, false
	}
	return sess, true
}

// Stage records a loaded plugin until its configuration is saved.
func (s *Store) Stage(d Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[d.ID] = d
}

// Save stores cfg for a previously staged plugin.
func (s *Store) Save(id string, cfg PluginConfig) (Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.staged[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("plugin %s was not loaded", id)
	}
	if cfg.ID != id {
		return Descriptor{}, fmt.Errorf("configuration id %q does not match %q", cfg.ID, id)
	}
	s.saved[id] = cfg
	return d, nil
}

// Saved returns a saved configuration by plugin id.
func (s *Store) Saved(id string) (PluginConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.saved[id]
	return cfg, ok
}

// ListSaved returns all saved configurations ordered by id.
func (s *Store) ListSaved() []PluginConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]PluginConfig, 0, len(s.saved))
	for _, cfg := range s.saved {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Logons returns how many sessions were opened since the last reset.
func (s *Store) Logons() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logons
}
