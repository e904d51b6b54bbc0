package menu

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keywords is a set of folded tokens.
type Keywords map[string]struct{}

// Has reports whether w is in the set.
func (k Keywords) Has(w string) bool {
	_, ok := k[w]
	return ok
}

func (k Keywords) add(w string) {
	if w != "" {
		k[w] = struct{}{}
	}
}

// Sorted returns the members alphabetically.
func (k Keywords) Sorted() []string {
	out := make([]string, 0, len(k))
	for w := range k {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// ColorFlavorWords are picked out of generation prompts.
var ColorFlavorWords = []string{
	"pink", "brown", "chocolate", "strawberry", "vanilla",
	"caramel", "golden", "dark", "white", "cream",
}

// namedIngredients maps a canonical token to the spellings that emit it.
// Spellings are already folded, so "jäger" arrives here as "jager".
var namedIngredients = []struct {
	canonical string
	spellings []string
}{
	{"oreo", []string{"oreo"}},
	{"milo", []string{"milo"}},
	{"jager", []string{"jager", "jagermeister"}},
	{"amarula", []string{"amarula"}},
	{"baileys", []string{"baileys", "bailey's"}},
	{"espresso", []string{"espresso", "coffee"}},
	{"cone", []string{"cone"}},
	{"vegan", []string{"vegan"}},
}

// aliases canonicalises single tokens of free text.
var aliases = map[string]string{
	"coffee":       "espresso",
	"martini":      "espresso",
	"jagermeister": "jager",
	"bailey":       "baileys",
	"toffee":       "caramel",
	"fudge":        "chocolate",
	"malt":         "milo",
	"cookie":       "oreo",
	"cookies":      "oreo",
}

// phraseAliases canonicalises multi-word names, matched on whole words of folded text.
var phraseAliases = []struct {
	phrase    string
	canonical string
}{
	{"irish cream", "baileys"},
	{"cookies and cream", "oreo"},
	{"cookies n cream", "oreo"},
}

var salient = map[string]bool{
	"oreo": true, "milo": true, "jager": true, "amarula": true,
	"baileys": true, "espresso": true, "strawberry": true,
}

// IsSalient reports whether w is a named ingredient that identifies a drink on its own.
func IsSalient(w string) bool { return salient[w] }

// Fold lower-cases s and strips combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Words splits folded text into words, preserving order and duplicates.
func Words(text string) []string {
	return splitWords(Fold(text))
}

// Tokens returns the folded word set of text plus the canonical form of every alias found.
func Tokens(text string) Keywords {
	set := Keywords{}
	words := Words(text)
	for _, w := range words {
		set.add(w)
		if c, ok := aliases[w]; ok {
			set.add(c)
		}
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, pa := range phraseAliases {
		if strings.Contains(joined, " "+pa.phrase+" ") {
			set.add(pa.canonical)
		}
	}
	return set
}

// ExtractKeywords derives the keyword set of an item from its title, its ingredients
// and vocabulary hits in its generation prompt.
func ExtractKeywords(item MenuItem) Keywords {
	set := Keywords{}
	for _, w := range splitWords(strings.ToLower(item.Title)) {
		set.add(w)
	}
	for _, w := range Words(item.Title) {
		set.add(w)
	}
	for _, ing := range item.Ingredients {
		for _, w := range Words(ing) {
			set.add(w)
		}
	}
	prompt := Fold(item.Prompt)
	for _, w := range ColorFlavorWords {
		if strings.Contains(prompt, w) {
			set.add(w)
		}
	}
	for _, ni := range namedIngredients {
		for _, sp := range ni.spellings {
			if strings.Contains(prompt, sp) {
				set.add(ni.canonical)
				break
			}
		}
	}
	return set
}
