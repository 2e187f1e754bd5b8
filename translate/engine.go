// Package translate produces bilingual Markdown documents: every
// translatable line is followed by its translation, inserted into the
// document as a new line directly beneath it.
//
// The package contains the chat-completions client, the numbered-line batch
// format and its parser, the planner that classifies a document before a
// run, and the Engine that walks a linebuf.Buffer and inserts translations
// while keeping track of how far each insertion shifts the lines below it.
package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/minios-linux/bitrans/classify"
	"github.com/minios-linux/bitrans/config"
	"github.com/minios-linux/bitrans/linebuf"
)

// Translator is the request side used by the Engine. *Client implements
// it; tests and caches wrap or replace it.
type Translator interface {
	TranslateOne(ctx context.Context, text string, s config.Settings) Result
	TranslateBatch(ctx context.Context, lines []Line, s config.Settings) Result
}

// Guard recognizes lines that are themselves translations from an earlier
// run, so a re-run does not translate them again.
type Guard interface {
	IsTranslation(text string) bool
	Record(source, translation string)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls an Engine.
type Options struct {
	// AbortOnError stops a realtime run at the first failed line. The
	// concurrent and batch strategies always stop on failure.
	AbortOnError bool
	// Guard, if set, skips earlier translations and records new ones.
	Guard Guard
	// OnStart is called once the document has been planned.
	OnStart func(runID string, strategy config.Strategy, pending int)
	// OnProgress is called after every line (realtime) or chunk.
	OnProgress func(done, total int)
	// OnLog emits informational messages.
	OnLog func(format string, args ...any)
	// OnWarn emits recoverable problems.
	OnWarn func(format string, args ...any)
	// OnError emits failures.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	} else {
		o.log(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(done, total)
	}
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Outcome summarizes a run.
type Outcome struct {
	RunID    string
	Strategy config.Strategy
	// Pending is the number of translatable lines found.
	Pending int
	// Inserted is the number of lines added to the buffer.
	Inserted int
	// Translated is the number of source lines that received a translation.
	Translated int
	// Failed is the number of lines whose request failed.
	Failed int
	// Skipped counts lines left untranslated without a request failure
	// (empty replies, earlier translations caught by the Guard).
	Skipped int
}

// Engine interleaves translations into a document.
type Engine struct {
	tr   Translator
	opts Options
}

// NewEngine creates an Engine.
func NewEngine(tr Translator, opts Options) *Engine {
	return &Engine{tr: tr, opts: opts}
}

// Run translates buf using s.Strategy. s is used as-is for the whole run.
//
// A run must not overlap with another run on the same buffer. Errors that
// stop a run are returned after the insertions made so far; those stay in
// the buffer.
func (e *Engine) Run(ctx context.Context, buf linebuf.Buffer, s config.Settings) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString(), Strategy: s.Strategy}

	if s.APIKey == "" {
		return out, newError(KindConfig, nil, "API key not configured")
	}
	if s.Concurrency < 1 {
		return out, newError(KindConfig, nil, "concurrency must be >= 1, got %d", s.Concurrency)
	}
	if isEmpty(buf) {
		return out, newError(KindInput, nil, "document is empty")
	}

	classifier := classify.New(classify.WithTables(s.TranslateTables))
	plan := BuildPlan(buf, classifier)
	pending := e.filterGuarded(plan.Pending(), &out)
	out.Pending = len(pending)
	if len(pending) == 0 {
		return out, ErrNothingToTranslate
	}

	if e.opts.OnStart != nil {
		e.opts.OnStart(out.RunID, s.Strategy, len(pending))
	}

	var err error
	switch s.Strategy {
	case config.StrategyRealtime:
		err = e.runRealtime(ctx, buf, s, classifier, pending, &out)
	case config.StrategyBatch:
		err = e.runBatch(ctx, buf, s, pending, &out)
	case config.StrategyConcurrent, "":
		out.Strategy = config.StrategyConcurrent
		err = e.runConcurrent(ctx, buf, s, pending, &out)
	default:
		return out, newError(KindConfig, nil, "unknown strategy %q", s.Strategy)
	}
	return out, err
}

func isEmpty(buf linebuf.Buffer) bool {
	for i := 0; i < buf.LineCount(); i++ {
		if strings.TrimSpace(buf.Line(i)) != "" {
			return false
		}
	}
	return true
}

func (e *Engine) filterGuarded(lines []Line, out *Outcome) []Line {
	if e.opts.Guard == nil {
		return lines
	}
	kept := lines[:0:0]
	for _, l := range lines {
		if e.opts.Guard.IsTranslation(l.Text) {
			out.Skipped++
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// runRealtime walks the original lines once, reading each at its shifted
// position and inserting its translation immediately. Only lines in pending
// are sent; translations inserted during the run never change that set.
func (e *Engine) runRealtime(ctx context.Context, buf linebuf.Buffer, s config.Settings, c *classify.Classifier, pending []Line, out *Outcome) error {
	want := make(map[int]bool, len(pending))
	for _, l := range pending {
		want[l.Index] = true
	}
	total := len(pending)
	n := buf.LineCount()
	scanner := c.Scanner()
	offset := 0
	done := 0

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		cur := i + offset
		raw := buf.Line(cur)
		if scanner.Next(raw) != classify.Translate {
			continue
		}
		if !want[i] {
			continue
		}
		line := lineOf(i, raw)

		res := e.tr.TranslateOne(ctx, line.Text, s)
		done++
		if !res.Success {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			out.Failed++
			lerr := &LineError{Line: i, Err: res.Error()}
			if e.opts.AbortOnError {
				e.opts.logError("%v", lerr)
				return lerr
			}
			e.opts.logError("%v (left untranslated)", lerr)
			e.opts.progress(done, total)
			continue
		}

		added, err := e.apply(buf, cur, line, res.Text, out)
		if err != nil {
			return err
		}
		offset += added
		e.opts.progress(done, total)
	}
	return nil
}

// runConcurrent translates Concurrency lines at a time and waits for the
// whole chunk before inserting it, so insertions happen in document order.
func (e *Engine) runConcurrent(ctx context.Context, buf linebuf.Buffer, s config.Settings, pending []Line, out *Outcome) error {
	chunks := Chunks(pending, s.Concurrency)
	applied := 0
	done := 0

	for ci, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		results := make([]Result, len(chunk))
		runParallel(ctx, chunk, s.Concurrency, func(ctx context.Context, j int, l Line) {
			results[j] = e.tr.TranslateOne(ctx, l.Text, s)
		})

		for j, l := range chunk {
			res := results[j]
			if !res.Success {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				out.Failed++
				lerr := &LineError{Line: l.Index, Err: res.Error()}
				e.opts.logError("Chunk %d/%d: %v", ci+1, len(chunks), lerr)
				return lerr
			}
			added, err := e.apply(buf, l.Index+applied, l, res.Text, out)
			if err != nil {
				return err
			}
			applied += added
		}

		done += len(chunk)
		e.opts.progress(done, len(pending))
	}
	return nil
}

// runBatch sends BatchSize lines per request in the numbered format.
func (e *Engine) runBatch(ctx context.Context, buf linebuf.Buffer, s config.Settings, pending []Line, out *Outcome) error {
	chunks := Chunks(pending, s.BatchSize)
	applied := 0
	done := 0

	for ci, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := e.tr.TranslateBatch(ctx, chunk, s)
		if !res.Success {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			out.Failed += len(chunk)
			err := fmt.Errorf("batch %d/%d (lines %d-%d): %w",
				ci+1, len(chunks), chunk[0].Index+1, chunk[len(chunk)-1].Index+1, res.Error())
			e.opts.logError("%v", err)
			return err
		}

		translations := ParseBatch(res.Text, len(chunk))
		if missing := Missing(translations); len(missing) > 0 {
			e.opts.warn("Batch %d/%d: %d of %d lines missing from the reply", ci+1, len(chunks), len(missing), len(chunk))
		}

		for j, l := range chunk {
			if strings.TrimSpace(translations[j]) == "" {
				out.Skipped++
				continue
			}
			added, err := e.apply(buf, l.Index+applied, l, translations[j], out)
			if err != nil {
				return err
			}
			applied += added
		}

		done += len(chunk)
		e.opts.progress(done, len(pending))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Insertion
// ---------------------------------------------------------------------------

// apply inserts the translation of l below buffer line pos and returns the
// number of lines added. Every line of a multi-line reply gets the source
// indentation.
func (e *Engine) apply(buf linebuf.Buffer, pos int, l Line, reply string, out *Outcome) (int, error) {
	text := cleanTranslation(l.Text, reply)
	if text == "" {
		out.Skipped++
		e.opts.warn("Line %d: empty translation", l.Index+1)
		return 0, nil
	}

	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, p := range parts {
		parts[i] = l.Indent + strings.TrimRight(p, " \t")
	}
	insert := "\n" + strings.Join(parts, "\n")

	col := len(buf.Line(pos))
	if err := buf.Insert(pos, col, insert); err != nil {
		return 0, fmt.Errorf("inserting translation of line %d: %w", l.Index+1, err)
	}

	out.Translated++
	out.Inserted += len(parts)
	if e.opts.Guard != nil {
		for _, p := range parts {
			e.opts.Guard.Record(l.Text, strings.TrimSpace(p))
		}
	}
	return len(parts), nil
}

// ---------------------------------------------------------------------------
// Parallel runner
// ---------------------------------------------------------------------------

// runParallel calls fn for every item with at most maxConcurrent calls in
// flight and returns when all calls have returned.
func runParallel[T any](ctx context.Context, items []T, maxConcurrent int, fn func(context.Context, int, T)) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)

		go func(i int, item T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, i, item)
		}(i, item)
	}

	wg.Wait()
}
