package badge

import "strconv"

// ceiling is the largest count displayed literally; anything above it
// renders as "99+".
const ceiling = 99

// Format returns the badge text for an unread count. A zero count hides
// the badge entirely (empty string).
func Format(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > ceiling:
		return "99+"
	default:
		return strconv.Itoa(count)
	}
}

// Visible reports whether the badge should be shown for the count.
func Visible(count int) bool {
	return count > 0
}
