package resume

import "strings"

// AddTag trims raw and appends it to tags unless it is empty or already
// present. Duplicates are rejected here, at the edit boundary; the store
// accepts whatever sequence it is given.
func AddTag(tags []string, raw string) ([]string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return tags, false
	}
	for _, t := range tags {
		if t == v {
			return tags, false
		}
	}
	out := make([]string, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, v), true
}

// RemoveTag drops the tag at index. Out-of-range indexes return tags unchanged.
func RemoveTag(tags []string, index int) ([]string, bool) {
	if index < 0 || index >= len(tags) {
		return tags, false
	}
	out := make([]string, 0, len(tags)-1)
	out = append(out, tags[:index]...)
	return append(out, tags[index+1:]...), true
}
