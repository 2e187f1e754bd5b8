// Package langmeta provides the language registry used to render language
// codes into the names that go into translation prompts and the CLI.
package langmeta

import (
	"sort"
	"strings"
)

// Auto is the pseudo source language asking the model to detect the
// language itself.
const Auto = "auto"

// Meta describes a language.
type Meta struct {
	// Name is the English name, used in prompts.
	Name string
	// Native is the name in the language itself, used in listings.
	Native string
}

// Registry contains the canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"en":    {Name: "English", Native: "English"},
	"zh-CN": {Name: "Simplified Chinese", Native: "简体中文"},
	"zh-TW": {Name: "Traditional Chinese", Native: "繁體中文"},
	"ja":    {Name: "Japanese", Native: "日本語"},
	"ko":    {Name: "Korean", Native: "한국어"},
	"fr":    {Name: "French", Native: "Français"},
	"de":    {Name: "German", Native: "Deutsch"},
	"es":    {Name: "Spanish", Native: "Español"},
	"it":    {Name: "Italian", Native: "Italiano"},
	"pt":    {Name: "Portuguese", Native: "Português"},
	"pt-BR": {Name: "Brazilian Portuguese", Native: "Português (Brasil)"},
	"ru":    {Name: "Russian", Native: "Русский"},
	"uk":    {Name: "Ukrainian", Native: "Українська"},
	"pl":    {Name: "Polish", Native: "Polski"},
	"nl":    {Name: "Dutch", Native: "Nederlands"},
	"tr":    {Name: "Turkish", Native: "Türkçe"},
	"ar":    {Name: "Arabic", Native: "العربية"},
	"hi":    {Name: "Hindi", Native: "हिन्दी"},
	"th":    {Name: "Thai", Native: "ไทย"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like pt_BR, pt-BR, and locale fallbacks. Unknown
// codes resolve to themselves.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, Native: lang}
}

// Name returns the English name for a language code, or the code itself
// when it is unknown.
func Name(lang string) string {
	return Resolve(lang).Name
}

// SourceName renders the source language for a prompt. "auto" asks the
// model to detect the language.
func SourceName(lang string) string {
	if lang == "" || lang == Auto {
		return "the source language (auto-detect)"
	}
	return Name(lang)
}

// Codes returns all registered codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for c := range Registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
