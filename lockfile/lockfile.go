// Package lockfile implements bitrans.lock, a lock file that remembers
// MD5 checksums of the translation lines bitrans inserted into each
// document. On the next run those lines are recognized and left alone, so
// a bilingual document can be re-translated after edits without its
// translations being translated again.
//
// The lock file is stored next to the translated documents as bitrans.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "bitrans.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the bitrans.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Documents maps a document key to translation hash -> source hash.
	Documents map[string]map[string]string `yaml:"documents"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Documents: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}
	if lf.Documents == nil {
		lf.Documents = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a line with surrounding whitespace
// removed.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.TrimSpace(s))))
}

// DocumentKey builds the key for a document path relative to the lock
// file's directory. Paths outside that directory are kept absolute.
func DocumentKey(dir, docPath string) string {
	abs, err := filepath.Abs(docPath)
	if err != nil {
		return filepath.ToSlash(docPath)
	}
	if absDir, err := filepath.Abs(dir); err == nil {
		if rel, err := filepath.Rel(absDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(abs)
}

// IsTranslation reports whether line was inserted as a translation into doc.
func (lf *LockFile) IsTranslation(doc, line string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	hashes, ok := lf.Documents[doc]
	if !ok {
		return false
	}
	_, ok = hashes[Hash(line)]
	return ok
}

// Record remembers that translation was inserted into doc below source.
func (lf *LockFile) Record(doc, source, translation string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Documents[doc] == nil {
		lf.Documents[doc] = make(map[string]string)
	}
	lf.Documents[doc][Hash(translation)] = Hash(source)
}

// Clean removes recorded translations of doc that no longer appear in
// lines. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(doc string, lines []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Documents[doc]
	if existing == nil {
		return
	}

	present := make(map[string]bool, len(lines))
	for _, l := range lines {
		present[Hash(l)] = true
	}

	for h := range existing {
		if !present[h] {
			delete(existing, h)
		}
	}
	if len(existing) == 0 {
		delete(lf.Documents, doc)
	}
}

// RemoveDocument removes all checksums for a document.
func (lf *LockFile) RemoveDocument(doc string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Documents, doc)
}

// ---------------------------------------------------------------------------
// Guard
// ---------------------------------------------------------------------------

// Guard binds a LockFile to one document. It satisfies translate.Guard.
type Guard struct {
	lf  *LockFile
	doc string
}

// For returns the guard for doc.
func (lf *LockFile) For(doc string) *Guard {
	return &Guard{lf: lf, doc: doc}
}

// IsTranslation reports whether text is a recorded translation line.
func (g *Guard) IsTranslation(text string) bool {
	return g.lf.IsTranslation(g.doc, text)
}

// Record remembers an inserted translation line.
func (g *Guard) Record(source, translation string) {
	g.lf.Record(g.doc, source, translation)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of documents and total recorded lines.
func (lf *LockFile) Stats() (docs, lines int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	docs = len(lf.Documents)
	for _, m := range lf.Documents {
		lines += len(m)
	}
	return
}

// DocumentKeys returns the sorted list of document keys.
func (lf *LockFile) DocumentKeys() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys := make([]string, 0, len(lf.Documents))
	for k := range lf.Documents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	docs, lines := lf.Stats()
	if docs == 0 {
		return "empty"
	}

	var parts []string
	for _, d := range lf.DocumentKeys() {
		lf.mu.Lock()
		n := len(lf.Documents[d])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d lines", d, n))
	}
	return fmt.Sprintf("%d documents, %d lines (%s)", docs, lines, strings.Join(parts, ", "))
}
