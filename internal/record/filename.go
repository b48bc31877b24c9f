package record

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FilenameSuffix is appended to every exported ticket name.
const FilenameSuffix = "_Cut_Ticket.pdf"

// DefaultTitle stands in for a blank record title.
const DefaultTitle = "Project"

// Filename returns "<title or Project>_Cut_Ticket.pdf". The title is trimmed,
// NFC-normalized and stripped of path separators and control characters.
func Filename(title string) string {
	t := norm.NFC.String(strings.TrimSpace(title))
	t = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, t)
	if t = strings.TrimSpace(t); t == "" {
		t = DefaultTitle
	}
	return t + FilenameSuffix
}

// Filename returns the export file name for the record.
func (r *Record) Filename() string {
	return Filename(r.Title)
}
