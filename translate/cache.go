package translate

import (
	"context"
	"sync"

	"github.com/minios-linux/bitrans/config"
)

// CacheKey identifies a stored translation.
type CacheKey struct {
	Text     string
	FromLang string
	ToLang   string
	Model    string
}

// KeyFor builds the cache key for text under s.
func KeyFor(text string, s config.Settings) CacheKey {
	return CacheKey{Text: text, FromLang: s.FromLang, ToLang: s.ToLang, Model: s.Model}
}

// Cache stores single-line translations between runs.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (string, bool, error)
	Put(ctx context.Context, key CacheKey, translation string) error
}

// CacheStats counts cache lookups made by a cached Translator.
type CacheStats struct {
	Hits   int
	Misses int
	Errors int
}

type cachedTranslator struct {
	mu    sync.Mutex
	next  Translator
	cache Cache
	stats *CacheStats
	onErr func(format string, args ...any)
}

// WithCache wraps t so single-line requests are answered from c when
// possible and successful replies are stored in c. Batch requests are
// passed through unchanged. Cache failures never fail a translation; they
// are counted in stats (if non-nil) and reported through onErr (if non-nil).
func WithCache(t Translator, c Cache, stats *CacheStats, onErr func(format string, args ...any)) Translator {
	if stats == nil {
		stats = &CacheStats{}
	}
	return &cachedTranslator{next: t, cache: c, stats: stats, onErr: onErr}
}

func (t *cachedTranslator) TranslateOne(ctx context.Context, text string, s config.Settings) Result {
	key := KeyFor(text, s)
	if got, ok, err := t.cache.Get(ctx, key); err != nil {
		t.fail("cache lookup: %v", err)
	} else if ok {
		t.count(&t.stats.Hits)
		return success(got)
	}
	t.count(&t.stats.Misses)

	res := t.next.TranslateOne(ctx, text, s)
	if res.Success {
		if err := t.cache.Put(ctx, key, res.Text); err != nil {
			t.fail("cache store: %v", err)
		}
	}
	return res
}

func (t *cachedTranslator) TranslateBatch(ctx context.Context, lines []Line, s config.Settings) Result {
	return t.next.TranslateBatch(ctx, lines, s)
}

func (t *cachedTranslator) count(n *int) {
	t.mu.Lock()
	*n++
	t.mu.Unlock()
}

func (t *cachedTranslator) fail(format string, args ...any) {
	t.count(&t.stats.Errors)
	if t.onErr != nil {
		t.onErr(format, args...)
	}
}
