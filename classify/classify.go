// Package classify decides, line by line, which parts of a Markdown
// document are translatable prose.
//
// Classification is a small state machine: fenced code blocks (```) and a
// YAML front matter block at the very top of the document are tracked
// across lines, everything else is decided by an ordered list of named
// content rules applied to the trimmed line.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Roles and state
// ---------------------------------------------------------------------------

// Role is the classification result for a single line.
type Role int

const (
	// Translate marks a line of prose that should be sent to the model.
	Translate Role = iota
	// SkipStructural marks fence and front matter lines (delimiters and
	// everything between them).
	SkipStructural
	// SkipContent marks non-prose lines outside structural blocks: blank
	// lines, rules, bare URLs, images, tables and similar.
	SkipContent
)

func (r Role) String() string {
	switch r {
	case Translate:
		return "translate"
	case SkipStructural:
		return "skip-structural"
	case SkipContent:
		return "skip-content"
	default:
		return "unknown"
	}
}

// State is carried from one line to the next during a document traversal.
// The zero value is the state before the first line.
type State struct {
	InFence           bool
	InFrontmatter     bool
	FrontmatterDelims int
}

const (
	frontmatterDelim = "---"
	fenceDelim       = "```"
)

// ---------------------------------------------------------------------------
// Content rules
// ---------------------------------------------------------------------------

// Rule is a named predicate over a trimmed line. A matching rule marks the
// line as SkipContent.
type Rule struct {
	Name  string
	Match func(trimmed string) bool
}

var (
	horizontalRule = regexp.MustCompile(`^[-*_]{3,}$`)
	bareURL        = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://\S+$`)
	imageOnly      = regexp.MustCompile(`^(!\[[^\]]*\]\((?:[^()]|\([^()]*\))*\)\s*)+$`)
	linkReference  = regexp.MustCompile(`^\[[^\]]+\]:\s*\S+`)
	htmlComment    = regexp.MustCompile(`^<!--.*-->$`)
)

// Rule names, usable with Without.
const (
	RuleBlank          = "blank"
	RuleHorizontalRule = "horizontal-rule"
	RuleBareURL        = "bare-url"
	RuleImageOnly      = "image-only"
	RuleLinkReference  = "link-reference"
	RuleHTMLComment    = "html-comment"
	RuleTableRow       = "table-row"
	RuleTooShort       = "too-short"
	RuleNoLetters      = "no-letters"
)

// DefaultRules returns the content rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleBlank, Match: func(s string) bool { return s == "" }},
		{Name: RuleHorizontalRule, Match: horizontalRule.MatchString},
		{Name: RuleBareURL, Match: bareURL.MatchString},
		{Name: RuleImageOnly, Match: imageOnly.MatchString},
		{Name: RuleLinkReference, Match: linkReference.MatchString},
		{Name: RuleHTMLComment, Match: htmlComment.MatchString},
		{Name: RuleTableRow, Match: func(s string) bool { return strings.Contains(s, "|") }},
		{Name: RuleTooShort, Match: func(s string) bool { return utf8.RuneCountInString(s) < 2 }},
		{Name: RuleNoLetters, Match: hasNoLetters},
	}
}

func hasNoLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Classifier
// ---------------------------------------------------------------------------

// Classifier applies the structural state machine and the content rules.
// It holds no per-document state and may be shared between goroutines.
type Classifier struct {
	rules []Rule
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTables makes table rows (lines containing '|') translatable.
func WithTables(translate bool) Option {
	return func(c *Classifier) {
		if translate {
			c.rules = without(c.rules, RuleTableRow)
		}
	}
}

// Without drops the named content rules.
func Without(names ...string) Option {
	return func(c *Classifier) {
		c.rules = without(c.rules, names...)
	}
}

// WithRules replaces the content rules entirely.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

func without(rules []Rule, names ...string) []Rule {
	out := make([]Rule, 0, len(rules))
outer:
	for _, r := range rules {
		for _, n := range names {
			if r.Name == n {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// New returns a Classifier with the default rules adjusted by opts.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns the names of the active content rules in order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Classify decides the role of line, the index-th line of the document,
// given the state left by the previous line. It returns the role and the
// state for the next line.
func (c *Classifier) Classify(index int, line string, st State) (Role, State) {
	role, st, _ := c.classify(index, line, st)
	return role, st
}

// Explain is Classify plus the name of the rule that decided the role
// ("frontmatter", "fence" or a content rule name; empty for Translate).
func (c *Classifier) Explain(index int, line string, st State) (Role, State, string) {
	return c.classify(index, line, st)
}

func (c *Classifier) classify(index int, line string, st State) (Role, State, string) {
	trimmed := strings.TrimSpace(line)

	if index == 0 && trimmed == frontmatterDelim {
		st.InFrontmatter = true
		st.FrontmatterDelims = 1
		return SkipStructural, st, "frontmatter"
	}

	if st.InFrontmatter {
		if trimmed == frontmatterDelim {
			st.FrontmatterDelims++
			if st.FrontmatterDelims >= 2 {
				st.InFrontmatter = false
			}
		}
		return SkipStructural, st, "frontmatter"
	}

	if strings.HasPrefix(trimmed, fenceDelim) {
		st.InFence = !st.InFence
		return SkipStructural, st, "fence"
	}

	if st.InFence {
		return SkipStructural, st, "fence"
	}

	for _, r := range c.rules {
		if r.Match(trimmed) {
			return SkipContent, st, r.Name
		}
	}
	return Translate, st, ""
}

// ---------------------------------------------------------------------------
// Scanner
// ---------------------------------------------------------------------------

// Scanner walks a document one line at a time, carrying the classifier
// state. Use a fresh Scanner for every pass over a document.
type Scanner struct {
	c     *Classifier
	index int
	state State
}

// Scanner returns a Scanner positioned before the first line.
func (c *Classifier) Scanner() *Scanner {
	return &Scanner{c: c}
}

// Next classifies the next line of the document.
func (s *Scanner) Next(line string) Role {
	role, st := s.c.Classify(s.index, line, s.state)
	s.state = st
	s.index++
	return role
}

// State returns the state after the last line passed to Next.
func (s *Scanner) State() State {
	return s.state
}

// ShouldTranslate reports whether a single line, seen outside of any code
// block or front matter, is translatable prose.
func (c *Classifier) ShouldTranslate(line string) bool {
	// Index 1 keeps a lone "---" from being read as front matter.
	role, _ := c.Classify(1, line, State{})
	return role == Translate
}
