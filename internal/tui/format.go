package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// dateLayouts are tried in order when parsing server-supplied dates.
// Backends are inconsistent about zone suffixes.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

// parseEmailDate parses a server date string, zero time on failure.
func parseEmailDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// formatRelativeDate renders a date the way a mailbox list does:
// time-of-day for today, "yesterday" for yesterday, day counts within a
// week, short date within a year, full date beyond that.
func formatRelativeDate(s string, now time.Time) string {
	t := parseEmailDate(s)
	if t.IsZero() {
		return "unknown"
	}
	t = t.In(now.Location())

	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days < 1:
		return t.Format("15:04")
	case days < 2:
		return "yesterday " + t.Format("15:04")
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < 365:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// formatAbsoluteDate renders the full timestamp for the detail header.
func formatAbsoluteDate(s string) string {
	t := parseEmailDate(s)
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("Mon, 02 Jan 2006 15:04")
}

// pageCount returns the number of pages for total items at pageSize each.
func pageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// padRight pads a string with spaces to fill width terminal cells.
// Uses lipgloss.Width to correctly handle ANSI codes and full-width characters.
func padRight(s string, width int) string {
	sw := lipgloss.Width(s)
	if sw >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateRunes truncates a string to fit within maxWidth terminal cells.
// Uses runewidth to correctly handle full-width characters (CJK, emoji, etc.)
// and removes control characters that could break the display layout.
func truncateRunes(s string, maxWidth int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// senderInitial falls back to the first rune of the sender address when
// the server did not supply one.
func senderInitial(supplied, fromEmail string) string {
	if supplied != "" {
		return supplied
	}
	for _, r := range fromEmail {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// wrapText wraps text to fit within width terminal cells.
// Uses runewidth to correctly handle full-width characters.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 80
	}

	var result []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			result = append(result, line)
			continue
		}

		runes := []rune(line)
		for len(runes) > 0 {
			currentWidth := 0
			breakAt := 0
			lastSpace := -1

			for i, r := range runes {
				rw := runewidth.RuneWidth(r)
				if currentWidth+rw > width {
					break
				}
				currentWidth += rw
				breakAt = i + 1
				if r == ' ' {
					lastSpace = i
				}
			}

			// Prefer breaking at a space if we found one in the latter half
			if lastSpace > breakAt/2 && breakAt < len(runes) {
				breakAt = lastSpace
			}

			if breakAt == 0 {
				breakAt = 1
			}

			result = append(result, string(runes[:breakAt]))
			runes = runes[breakAt:]

			for len(runes) > 0 && runes[0] == ' ' {
				runes = runes[1:]
			}
		}
	}

	return result
}
