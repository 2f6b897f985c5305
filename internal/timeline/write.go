package timeline

import (
	"fmt"
	"io"
	"strings"
)

// Write dumps the definition list with resolved begin times, indenting
// nested levels.
func (tl *Timeline) Write(w io.Writer) error {
	tl.recompute()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", tl.Name())
	depth := 1
	for i := range tl.defs {
		d := &tl.defs[i]
		if d.kind == defPopLevel {
			depth = max(depth-1, 1)
		}
		sb.WriteString(tl.formatTime(d.actualBegin))
		sb.WriteString(strings.Repeat(" ", depth))
		sb.WriteString(describeDef(d))
		sb.WriteByte('\n')
		if d.kind == defPushLevel {
			depth++
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteTimeline dumps the flattened event list.
func (tl *Timeline) WriteTimeline(w io.Writer) error {
	tl.recompute()

	var sb strings.Builder
	for _, ev := range tl.events {
		sb.WriteString(tl.formatTime(ev.time))
		fmt.Fprintf(&sb, " %-8s%s\n", ev.kind, describeDef(&tl.defs[ev.n]))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (tl *Timeline) formatTime(ticks int64) string {
	decimals := 0
	for p := 1.0; p < tl.precision; p *= 10 {
		decimals++
	}
	width := decimals + 4
	return fmt.Sprintf("%*.*f", width, decimals, tl.toSeconds(ticks))
}

func describeDef(d *def) string {
	switch d.kind {
	case defChild:
		s := fmt.Sprintf("%s dur %g", d.child.Name(), d.child.Duration())
		if !d.child.OpenEnded() {
			s += " (!oe)"
		}
		return s
	case defExternal:
		s := fmt.Sprintf("*%s dur %g", d.name, d.duration)
		if !d.openEnded {
			s += " (!oe)"
		}
		return s
	case defPushLevel:
		return d.name + " {"
	case defPopLevel:
		return "}"
	default:
		return "?"
	}
}
