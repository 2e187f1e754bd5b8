package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newLockFile() *LockFile {
	return &LockFile{
		Version:   Version,
		Documents: make(map[string]map[string]string),
	}
}

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("  hello world\t")
	if h1 != h2 {
		t.Errorf("Hash should ignore surrounding whitespace: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Documents) != 0 {
		t.Errorf("Documents not empty: %v", lf.Documents)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Record("README.md", "Hello", "Hola")
	lf.Record("README.md", "World", "Mundo")
	lf.Record("docs/intro.md", "Hello", "Hola")

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	docs, lines := lf2.Stats()
	if docs != 2 {
		t.Errorf("docs = %d, want 2", docs)
	}
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
	if !lf2.IsTranslation("README.md", "Mundo") {
		t.Error("Mundo should be recognized after reload")
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("version: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("documents: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestIsTranslation(t *testing.T) {
	lf := newLockFile()

	if lf.IsTranslation("README.md", "Hola") {
		t.Error("unknown line should not be a translation")
	}

	lf.Record("README.md", "Hello", "Hola")
	if !lf.IsTranslation("README.md", "  Hola") {
		t.Error("recorded line should be a translation regardless of indent")
	}
	if lf.IsTranslation("README.md", "Hello") {
		t.Error("source line should not be a translation")
	}
	if lf.IsTranslation("other.md", "Hola") {
		t.Error("translations are per document")
	}
}

func TestGuard(t *testing.T) {
	lf := newLockFile()
	g := lf.For("README.md")

	g.Record("Hello", "Hola")
	if !g.IsTranslation("Hola") {
		t.Error("guard should see its own record")
	}
	if !lf.IsTranslation("README.md", "Hola") {
		t.Error("guard should write through to the lock file")
	}
	if lf.For("other.md").IsTranslation("Hola") {
		t.Error("guard for another document should not match")
	}
}

func TestClean(t *testing.T) {
	lf := newLockFile()

	lf.Record("README.md", "Hello", "Hola")
	lf.Record("README.md", "World", "Mundo")
	lf.Record("README.md", "Gone", "Ido")

	lf.Clean("README.md", []string{"Hello", "Hola", "World", "  Mundo"})

	if !lf.IsTranslation("README.md", "Hola") {
		t.Error("Hola should still be tracked")
	}
	if lf.IsTranslation("README.md", "Ido") {
		t.Error("Ido should be removed by Clean")
	}

	lf.Clean("README.md", nil)
	if docs, _ := lf.Stats(); docs != 0 {
		t.Errorf("docs = %d after cleaning everything, want 0", docs)
	}
}

func TestRemoveDocument(t *testing.T) {
	lf := newLockFile()

	lf.Record("README.md", "Hello", "Hola")
	lf.RemoveDocument("README.md")

	if docs, _ := lf.Stats(); docs != 0 {
		t.Errorf("docs after RemoveDocument = %d, want 0", docs)
	}
}

func TestDocumentKeys(t *testing.T) {
	lf := newLockFile()

	lf.Record("b.md", "Hello", "Hola")
	lf.Record("c.md", "Hello", "Hola")
	lf.Record("a.md", "Hello", "Hola")

	keys := lf.DocumentKeys()
	expected := []string{"a.md", "b.md", "c.md"}
	if len(keys) != len(expected) {
		t.Fatalf("keys len = %d, want %d", len(keys), len(expected))
	}
	for i, want := range expected {
		if keys[i] != want {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want)
		}
	}
}

func TestDocumentKey(t *testing.T) {
	dir := t.TempDir()

	if got := DocumentKey(dir, filepath.Join(dir, "docs", "intro.md")); got != "docs/intro.md" {
		t.Errorf("DocumentKey inside dir = %q, want docs/intro.md", got)
	}

	outside := filepath.Join(filepath.Dir(dir), "elsewhere.md")
	if got := DocumentKey(dir, outside); !filepath.IsAbs(filepath.FromSlash(got)) {
		t.Errorf("DocumentKey outside dir = %q, want absolute path", got)
	}
}

func TestSummary(t *testing.T) {
	lf := newLockFile()

	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.Record("README.md", "Hello", "Hola")
	lf.Record("docs/intro.md", "Hello", "Hola")
	s := lf.Summary()
	if !strings.HasPrefix(s, "2 documents, 2 lines") {
		t.Errorf("summary = %q", s)
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := newLockFile()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			line := "line" + string(rune('0'+n))
			lf.Record("README.md", "source", line)
			lf.IsTranslation("README.md", line)
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, lines := lf.Stats()
	if lines != 10 {
		t.Errorf("lines after concurrent writes = %d, want 10", lines)
	}
}
