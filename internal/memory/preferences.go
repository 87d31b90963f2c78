package memory

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// allowedPreferenceKeys is the only set of attributes ever persisted. Anything
// else (health details in particular) is dropped before it reaches disk.
var allowedPreferenceKeys = map[string]struct{}{
	"preferred_language":          {},
	"skill_level":                 {},
	"consent_for_guided_practice": {},
	"preferred_session_length":    {},
	"teaching_style":              {},
}

// IsAllowedKey reports whether key may be stored in the preference profile.
func IsAllowedKey(key string) bool {
	_, ok := allowedPreferenceKeys[key]
	return ok
}

// AllowedKeys returns the allow-list in sorted order.
func AllowedKeys() []string {
	keys := make([]string, 0, len(allowedPreferenceKeys))
	for k := range allowedPreferenceKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpdateObserver is notified of each update attempt.
type UpdateObserver func(key string, accepted bool)

// PreferenceStore is a small file-backed profile of user preferences. Every
// accepted update rewrites the whole file.
type PreferenceStore struct {
	path     string
	prefs    map[string]any
	observer UpdateObserver
}

// OpenPreferenceStore loads the profile at path. A missing or unreadable file
// yields an empty profile; it is not an error.
func OpenPreferenceStore(path string) *PreferenceStore {
	s := &PreferenceStore{path: path, prefs: make(map[string]any)}
	s.load()
	return s
}

func (s *PreferenceStore) SetObserver(fn UpdateObserver) { s.observer = fn }

func (s *PreferenceStore) Path() string { return s.path }

func (s *PreferenceStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("preferences: read %s failed, starting empty: %v", s.path, err)
		}
		return
	}
	var prefs map[string]any
	if err := json.Unmarshal(data, &prefs); err != nil {
		log.Printf("preferences: %s is corrupt, starting empty: %v", s.path, err)
		return
	}
	for k, v := range prefs {
		if !IsAllowedKey(k) {
			log.Printf("preferences: dropping disallowed key %q from %s", k, s.path)
			continue
		}
		s.prefs[k] = v
	}
}

// Update stores value under key when key is allowed. Rejected keys are
// dropped without any signal to the caller.
func (s *PreferenceStore) Update(key string, value any) {
	accepted := IsAllowedKey(key)
	if s.observer != nil {
		s.observer(key, accepted)
	}
	if !accepted {
		return
	}
	s.prefs[key] = value
	if err := s.save(); err != nil {
		log.Printf("preferences: save %s failed: %v", s.path, err)
	}
}

// UpdateFromMap applies Update to each entry independently.
func (s *PreferenceStore) UpdateFromMap(values map[string]any) {
	for k, v := range values {
		s.Update(k, v)
	}
}

func (s *PreferenceStore) save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *PreferenceStore) Snapshot() map[string]any {
	out := make(map[string]any, len(s.prefs))
	for k, v := range s.prefs {
		out[k] = v
	}
	return out
}

// Summary serializes the full profile as compact JSON.
func (s *PreferenceStore) Summary() string {
	data, err := json.Marshal(s.prefs)
	if err != nil {
		return "{}"
	}
	return string(data)
}
