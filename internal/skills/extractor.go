package skills

import (
	"regexp"
	"strings"

	"github.com/spigell/job-matcher/internal/textutil"
)

// MatchMode selects how skills are detected in free text.
type MatchMode string

const (
	// ModeWord matches skills as whole words with boundary-aware patterns.
	ModeWord MatchMode = "word"
	// ModeSubstring is the literal substring scan. It reports "go" inside "good".
	ModeSubstring MatchMode = "substring"
)

// Config configures an Extractor. Zero values fall back to the defaults.
type Config struct {
	Mode       MatchMode           `mapstructure:"match-mode"`
	Vocabulary Vocabulary          `mapstructure:"vocabulary"`
	Aliases    map[string][]string `mapstructure:"aliases"`
}

// Extractor scans text against a skill vocabulary.
type Extractor struct {
	mode     MatchMode
	skills   []string
	patterns map[string][]*regexp.Regexp
}

// Boundaries exclude symbols that are part of skill names (c++, c#).
// A dot may end a skill ("Python.") but never start one, so "js" is not
// found inside "Node.js".
const (
	leftBoundary  = `[^\p{L}\p{N}_+#.]`
	rightBoundary = `[^\p{L}\p{N}_+#]`
)

// New builds an Extractor. A nil config yields the default vocabulary in word mode.
func New(cfg *Config) *Extractor {
	if cfg == nil {
		cfg = &Config{}
	}

	vocab := cfg.Vocabulary
	if len(vocab) == 0 {
		vocab = DefaultVocabulary()
	}

	aliases := cfg.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}

	mode := cfg.Mode
	if mode != ModeSubstring {
		mode = ModeWord
	}

	e := &Extractor{
		mode:     mode,
		skills:   make([]string, 0),
		patterns: make(map[string][]*regexp.Regexp),
	}

	for _, name := range vocab.Names() {
		skill := strings.ToLower(strings.TrimSpace(name))
		if skill == "" {
			continue
		}
		if _, ok := e.patterns[skill]; ok {
			continue
		}
		e.skills = append(e.skills, skill)

		spellings := append([]string{skill}, aliases[skill]...)
		compiled := make([]*regexp.Regexp, 0, len(spellings))
		for _, spelling := range spellings {
			compiled = append(compiled, compileSpelling(spelling))
		}
		e.patterns[skill] = compiled
	}

	return e
}

// Mode returns the active match mode.
func (e *Extractor) Mode() MatchMode { return e.mode }

// Skills returns the canonical skill names in scan order.
func (e *Extractor) Skills() []string {
	out := make([]string, len(e.skills))
	copy(out, e.skills)
	return out
}

// Extract returns distinct skills found in text, in vocabulary order.
func (e *Extractor) Extract(text string) []string {
	return e.ExtractN(text, 0)
}

// ExtractN is Extract capped to limit results. A non-positive limit means no cap.
func (e *Extractor) ExtractN(text string, limit int) []string {
	found := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return found
	}

	lower := strings.ToLower(textutil.Fold(text))
	for _, skill := range e.skills {
		if limit > 0 && len(found) >= limit {
			break
		}
		if e.matches(lower, skill) {
			found = append(found, skill)
		}
	}

	return found
}

func (e *Extractor) matches(lower, skill string) bool {
	if e.mode == ModeSubstring {
		return strings.Contains(lower, skill)
	}
	for _, re := range e.patterns[skill] {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// compileSpelling turns "machine learning" into a pattern that also accepts
// "machine-learning", bounded so "java" does not match inside "javascript".
func compileSpelling(spelling string) *regexp.Regexp {
	words := strings.Fields(strings.ToLower(spelling))
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	body := strings.Join(quoted, `[\s\-_]+`)
	return regexp.MustCompile(`(?:^|` + leftBoundary + `)` + body + `(?:$|` + rightBoundary + `)`)
}
