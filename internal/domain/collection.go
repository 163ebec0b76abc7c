package domain

import "strings"

// Clone returns a copy of sports that shares no backing array with the input.
// A nil input yields an empty, non-nil slice.
func Clone(sports []Sport) []Sport {
	out := make([]Sport, len(sports))
	copy(out, sports)
	return out
}

// Visible returns the entries that are not hidden, in their original order.
func Visible(sports []Sport) []Sport {
	out := make([]Sport, 0, len(sports))
	for _, s := range sports {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

// FindByName returns the first entry named name.
func FindByName(sports []Sport, name string) (Sport, bool) {
	for _, s := range sports {
		if s.Name == name {
			return s, true
		}
	}
	return Sport{}, false
}

// Contains reports whether any entry is named name.
func Contains(sports []Sport, name string) bool {
	_, ok := FindByName(sports, name)
	return ok
}

// Names returns every name in collection order, duplicates included.
func Names(sports []Sport) []string {
	names := make([]string, 0, len(sports))
	for _, s := range sports {
		names = append(names, s.Name)
	}
	return names
}

// Search filters by case-insensitive substring match on the name.
// An empty query matches everything.
func Search(sports []Sport, query string) []Sport {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Clone(sports)
	}

	out := make([]Sport, 0, len(sports))
	for _, s := range sports {
		if strings.Contains(strings.ToLower(s.Name), query) {
			out = append(out, s)
		}
	}
	return out
}

// DuplicateNames returns each name that occurs more than once, in order of
// its second occurrence.
func DuplicateNames(sports []Sport) []string {
	seen := make(map[string]int, len(sports))
	var dups []string
	for _, s := range sports {
		seen[s.Name]++
		if seen[s.Name] == 2 {
			dups = append(dups, s.Name)
		}
	}
	return dups
}
