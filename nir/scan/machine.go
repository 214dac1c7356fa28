package scan

import (
	"strings"
	"unicode"
)

type state int

const (
	stateSeekingMarker state = iota
	stateSkippingHeader
	stateReadingRows
	stateDone
)

func (s state) String() string {
	switch s {
	case stateSeekingMarker:
		return "seeking-marker"
	case stateSkippingHeader:
		return "skipping-header"
	case stateReadingRows:
		return "reading-rows"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// machine tracks the position within the export, one line at a time.
type machine struct {
	marker string
	prefix string
	state  state
}

func newMachine(marker string) *machine {
	return &machine{marker: marker, prefix: markerPrefix(marker), state: stateSeekingMarker}
}

// markerPrefix returns the leading run of punctuation shared by all section
// headers ("***" for "***Scan Data***"), or the whole marker if it has none.
func markerPrefix(marker string) string {
	i := strings.IndexFunc(marker, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)
	})
	if i <= 0 {
		return marker
	}
	return marker[:i]
}

// step consumes one line and reports whether it is a data row.
func (m *machine) step(line string) bool {
	switch m.state {
	case stateSeekingMarker:
		if strings.Contains(line, m.marker) {
			m.state = stateSkippingHeader
		}
		return false
	case stateSkippingHeader:
		m.state = stateReadingRows
		return false
	case stateReadingRows:
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, m.prefix) {
			m.state = stateDone
			return false
		}
		return true
	default:
		return false
	}
}
