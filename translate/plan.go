package translate

import (
	"strings"

	"github.com/minios-linux/bitrans/classify"
	"github.com/minios-linux/bitrans/linebuf"
)

// ---------------------------------------------------------------------------
// Planning
// ---------------------------------------------------------------------------

// PlannedLine is one line of the document with its classification.
type PlannedLine struct {
	Index int
	Raw   string
	Role  classify.Role
	// Rule names what decided a skip ("fence", "frontmatter" or a content
	// rule); empty for translatable lines.
	Rule string
}

// Group is a run of consecutive lines that are either all translatable or
// all skipped.
type Group struct {
	Translate bool
	Lines     []PlannedLine
}

// Plan is the classification of a whole document, taken before any
// insertion.
type Plan struct {
	Lines []PlannedLine
}

// BuildPlan classifies every line of buf in order.
func BuildPlan(buf linebuf.Buffer, c *classify.Classifier) Plan {
	n := buf.LineCount()
	p := Plan{Lines: make([]PlannedLine, 0, n)}
	var st classify.State
	for i := 0; i < n; i++ {
		raw := buf.Line(i)
		var role classify.Role
		var rule string
		role, st, rule = c.Explain(i, raw, st)
		p.Lines = append(p.Lines, PlannedLine{Index: i, Raw: raw, Role: role, Rule: rule})
	}
	return p
}

// Pending returns the translatable lines in document order.
func (p Plan) Pending() []Line {
	var out []Line
	for _, pl := range p.Lines {
		if pl.Role == classify.Translate {
			out = append(out, lineOf(pl.Index, pl.Raw))
		}
	}
	return out
}

// Count returns the number of lines with the given role.
func (p Plan) Count(role classify.Role) int {
	n := 0
	for _, pl := range p.Lines {
		if pl.Role == role {
			n++
		}
	}
	return n
}

// Groups partitions the plan into runs of translate and skip lines,
// preserving order.
func (p Plan) Groups() []Group {
	var groups []Group
	for _, pl := range p.Lines {
		tr := pl.Role == classify.Translate
		if len(groups) == 0 || groups[len(groups)-1].Translate != tr {
			groups = append(groups, Group{Translate: tr})
		}
		g := &groups[len(groups)-1]
		g.Lines = append(g.Lines, pl)
	}
	return groups
}

func lineOf(index int, raw string) Line {
	return Line{
		Index:  index,
		Text:   strings.TrimSpace(raw),
		Indent: leadingWhitespace(raw),
	}
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// Chunks divides lines into consecutive chunks of at most size lines.
func Chunks(lines []Line, size int) [][]Line {
	if len(lines) == 0 {
		return nil
	}
	if size <= 0 || size >= len(lines) {
		return [][]Line{lines}
	}
	var chunks [][]Line
	for i := 0; i < len(lines); i += size {
		end := i + size
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[i:end])
	}
	return chunks
}
