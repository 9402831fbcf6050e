package policy

import (
	"strings"
	"sync"
)

// Store holds the session's policy settings.
// Reads take a snapshot; Update is the only mutation path.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore validates and normalizes settings into a Store.
func NewStore(s Settings) (*Store, error) {
	norm, err := normalize(s)
	if err != nil {
		return nil, err
	}
	return &Store{settings: norm}, nil
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Mode returns the current execution mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Mode
}

// Update applies fn to a copy of the settings and commits it only if the
// result is still valid.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.Clone()
	fn(&next)
	norm, err := normalize(next)
	if err != nil {
		return err
	}
	s.settings = norm
	return nil
}

func normalize(s Settings) (Settings, error) {
	mode, err := ParseMode(string(s.Mode))
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Mode:      mode,
		AllowList: cleanList(s.AllowList),
		DenyList:  cleanList(s.DenyList),
	}, nil
}

// cleanList trims entries, drops blanks and removes duplicates keeping first occurrence.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
