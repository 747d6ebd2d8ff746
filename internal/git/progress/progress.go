// Package progress interprets the diagnostic lines git prints on stderr while
// cloning, fetching or pushing.
package progress

import (
	"regexp"
	"strconv"
	"strings"
)

// Progress is one update for the caller's progress display.
type Progress struct {
	// Action is the label before the percentage ("Receiving objects"), or the
	// whole line for indeterminate updates.
	Action        string
	Percent       int
	Current       int
	Total         int
	Done          bool
	Indeterminate bool
}

// "Receiving objects:  42% (210/500), 1.20 MiB | 2.00 MiB/s, done."
var determinateRe = regexp.MustCompile(`^(.*?):\s+(\d{1,3})%\s+\((\d+)/(\d+)\)(.*)$`)

// Parse classifies one stderr line. git rewrites a progress line in place by
// emitting carriage returns, so only the last non-empty CR segment counts. It
// returns false for blank input.
func Parse(line string) (Progress, bool) {
	text := lastSegment(line)
	if text == "" {
		return Progress{}, false
	}
	m := determinateRe.FindStringSubmatch(text)
	if m == nil {
		return Progress{Action: text, Indeterminate: true}, true
	}
	percent, err := strconv.Atoi(m[2])
	if err != nil || percent > 100 {
		return Progress{Action: text, Indeterminate: true}, true
	}
	current, _ := strconv.Atoi(m[3])
	total, _ := strconv.Atoi(m[4])
	return Progress{
		Action:  strings.TrimSpace(m[1]),
		Percent: percent,
		Current: current,
		Total:   total,
		Done:    strings.Contains(m[5], "done"),
	}, true
}

func lastSegment(line string) string {
	segments := strings.Split(line, "\r")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return ""
}

// Tracker consumes stderr lines of a network operation. Indeterminate lines
// are kept as candidate error text; a determinate update proves the operation
// is progressing and clears them.
type Tracker struct {
	report    func(Progress)
	candidate []string
}

// NewTracker returns a Tracker forwarding every update to report (may be nil).
func NewTracker(report func(Progress)) *Tracker {
	return &Tracker{report: report}
}

// Line has the signature of a backend.LineSink callback.
func (t *Tracker) Line(line string) {
	p, ok := Parse(line)
	if !ok {
		return
	}
	if p.Indeterminate {
		t.candidate = append(t.candidate, p.Action)
	} else {
		t.candidate = t.candidate[:0]
	}
	if t.report != nil {
		t.report(p)
	}
}

// ErrorText returns the indeterminate lines seen since the last determinate
// update.
func (t *Tracker) ErrorText() string {
	return strings.Join(t.candidate, "\n")
}
