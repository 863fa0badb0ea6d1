package event

import "strings"

// Topic is a dot-separated event name, e.g. "undo.checkpoint". In a
// subscription pattern, "*" matches exactly one segment and "**" matches
// zero or more segments.
type Topic string

// Segments splits the topic on dots.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), ".")
}

// Match reports whether topic matches pattern.
func Match(pattern, topic Topic) bool {
	return matchSegments(pattern.Segments(), topic.Segments())
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	switch pattern[0] {
	case "**":
		// Zero segments, or consume one and try again.
		if matchSegments(pattern[1:], segs) {
			return true
		}
		return len(segs) > 0 && matchSegments(pattern, segs[1:])
	case "*":
		return len(segs) > 0 && matchSegments(pattern[1:], segs[1:])
	default:
		return len(segs) > 0 && pattern[0] == segs[0] && matchSegments(pattern[1:], segs[1:])
	}
}
