package state

import "sort"

// Selection tracks the set of file paths picked for the next commit. The
// zero value is ready to use.
type Selection struct {
	picked map[string]struct{}
}

// Toggle flips membership for path and reports whether the path is selected
// afterwards.
func (s *Selection) Toggle(path string) bool {
	if s.picked == nil {
		s.picked = make(map[string]struct{})
	}
	if _, ok := s.picked[path]; ok {
		delete(s.picked, path)
		return false
	}
	s.picked[path] = struct{}{}
	return true
}

// Contains reports whether path is currently picked.
func (s *Selection) Contains(path string) bool {
	if s.picked == nil {
		return false
	}
	_, ok := s.picked[path]
	return ok
}

// Count returns the number of picked paths.
func (s *Selection) Count() int {
	return len(s.picked)
}

// Clear drops every pick.
func (s *Selection) Clear() {
	if len(s.picked) == 0 {
		return
	}
	for path := range s.picked {
		delete(s.picked, path)
	}
}

// Prune drops picks that no longer appear in paths.
func (s *Selection) Prune(paths []string) {
	if len(s.picked) == 0 {
		return
	}
	valid := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		valid[path] = struct{}{}
	}
	for path := range s.picked {
		if _, ok := valid[path]; !ok {
			delete(s.picked, path)
		}
	}
}

// Paths returns the picked paths in sorted order, or nil when empty.
func (s *Selection) Paths() []string {
	if len(s.picked) == 0 {
		return nil
	}
	paths := make([]string, 0, len(s.picked))
	for path := range s.picked {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
