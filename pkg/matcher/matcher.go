// Package matcher scores an image's signals against the menu catalog.
package matcher

import (
	"sort"
	"strings"

	"shakeassets/pkg/menu"
)

// MaxRunnerUps bounds Result.RunnerUps.
const MaxRunnerUps = 3

// Candidate is one scored catalog item.
type Candidate struct {
	ItemID string `json:"item"`
	Score  int    `json:"score"`
}

// Result is the outcome for one image. ItemID is empty when nothing reached the threshold;
// Score is still the best score seen.
type Result struct {
	ItemID    string      `json:"item,omitempty"`
	Score     int         `json:"score"`
	RunnerUps []Candidate `json:"runner_ups,omitempty"`
}

// Matched reports whether an item was accepted.
func (r Result) Matched() bool { return r.ItemID != "" }

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	cfg Config
}

// New builds a Matcher; out-of-range config values take their defaults.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg.normalized()}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config { return m.cfg }

// Threshold is the effective acceptance threshold.
func (m *Matcher) Threshold() int { return m.cfg.AcceptanceThreshold }

type preparedSignal struct {
	vision       string
	hasVision    bool
	combined     string
	visionTokens menu.Keywords
	tokens       menu.Keywords
	colors       map[ColorBucket]struct{}
	folder       map[FolderHint]struct{}
}

func prepare(sig Signal) preparedSignal {
	vision := menu.Fold(sig.Vision())
	ocr := menu.Fold(strings.TrimSpace(sig.OCRText))
	combined := strings.TrimSpace(ocr + " " + vision)
	return preparedSignal{
		vision:       vision,
		hasVision:    vision != "",
		combined:     combined,
		visionTokens: menu.Tokens(vision),
		tokens:       menu.Tokens(combined),
		colors:       sig.Colors,
		folder:       sig.Folder,
	}
}

// Match scores every item and picks the best one. Ties keep the earliest item in
// catalog order.
func (m *Matcher) Match(sig Signal, cat *menu.Catalog) Result {
	items := cat.Items()
	if len(items) == 0 {
		return Result{}
	}
	p := prepare(sig)
	cands := make([]Candidate, 0, len(items))
	for _, it := range items {
		cands = append(cands, Candidate{ItemID: it.ID, Score: m.score(p, it)})
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	best := cands[0]
	res := Result{Score: best.Score}
	if best.Score > 0 && best.Score >= m.cfg.AcceptanceThreshold {
		res.ItemID = best.ItemID
	}
	n := min(MaxRunnerUps, len(cands))
	res.RunnerUps = append([]Candidate(nil), cands[:n]...)
	return res
}

// Score returns the score of a single item, for diagnostics.
func (m *Matcher) Score(sig Signal, item menu.MenuItem) int {
	if item.Keywords == nil {
		item.Keywords = menu.ExtractKeywords(item)
	}
	return m.score(prepare(sig), item)
}

func (m *Matcher) score(p preparedSignal, item menu.MenuItem) int {
	c := m.cfg
	score := 0

	title := menu.Fold(strings.TrimSpace(item.Title))
	if title != "" {
		switch {
		case c.VisionPriority && p.hasVision && strings.Contains(p.vision, title):
			score += c.TitleExactWeight * c.VisionPriorityMultiplier
		case strings.Contains(p.combined, title):
			score += c.TitleExactWeight
		}
	}

	words := distinct(menu.Words(item.Title))
	if c.VisionPriority && p.hasVision && anyIn(words, p.visionTokens) {
		score += c.VisionTitleWordWeight
	} else {
		for _, w := range words {
			if p.tokens.Has(w) {
				score += c.TitleWordWeight
			}
		}
	}

	for kw := range item.Keywords {
		if !p.tokens.Has(kw) {
			continue
		}
		if menu.IsSalient(kw) {
			score += c.SalientKeywordWeight
		} else {
			score += c.KeywordWeight
		}
	}

	for hint := range p.folder {
		if cat, ok := folderCategory[hint]; ok && cat == item.Category {
			score += c.FolderHintWeight
		}
	}

	for bucket := range p.colors {
		for _, kw := range colorKeywords[bucket] {
			if item.Keywords.Has(kw) {
				score += c.ColorHintWeight
				break
			}
		}
	}
	return score
}

func distinct(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func anyIn(words []string, set menu.Keywords) bool {
	for _, w := range words {
		if set.Has(w) {
			return true
		}
	}
	return false
}
