package translate

import (
	"regexp"
	"strconv"
	"strings"
)

// numberedLine matches "[n] text" and "[n]text".
var numberedLine = regexp.MustCompile(`^\[(\d+)\]\s*(.*)$`)

// ParseBatch maps a numbered-line reply back onto expected slots. Unknown
// lines are ignored, a repeated index overwrites the earlier one, and
// indices never seen yield "". The result always has length expected.
func ParseBatch(response string, expected int) []string {
	if expected < 0 {
		expected = 0
	}
	found := make(map[int]string)
	for _, line := range strings.Split(response, "\n") {
		m := numberedLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found[idx] = m[2]
	}

	out := make([]string, expected)
	for i := range out {
		out[i] = found[i]
	}
	return out
}

// Missing returns the indices of empty slots in a ParseBatch result.
func Missing(parsed []string) []int {
	var missing []int
	for i, s := range parsed {
		if strings.TrimSpace(s) == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

// cleanTranslation trims a single-line reply and drops quotes the model
// sometimes wraps around it, unless the source itself was quoted.
func cleanTranslation(source, s string) string {
	s = strings.TrimSpace(s)
	if quoted(s) && !quoted(strings.TrimSpace(source)) {
		s = s[1 : len(s)-1]
	}
	return s
}

func quoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')
}
