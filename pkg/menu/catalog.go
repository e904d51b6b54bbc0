package menu

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Category is a top-level group of the menu catalog file.
type Category string

const (
	StraightShake Category = "straightshakes"
	ShotShake     Category = "shotshakes"
	IceCream      Category = "icecream"
	Vegan         Category = "vegan"
)

// Categories lists the catalog groups in declaration order.
var Categories = []Category{StraightShake, ShotShake, IceCream, Vegan}

// Label is the human form used on the website ("ShotShake").
func (c Category) Label() string {
	switch c {
	case StraightShake:
		return "StraightShake"
	case ShotShake:
		return "ShotShake"
	case IceCream:
		return "IceCream"
	case Vegan:
		return "Vegan"
	}
	return string(c)
}

// ParseCategory accepts either the group key or the label, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if s == string(c) || s == strings.ToLower(c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// MenuItem is one catalog entry. Keywords is derived at load time.
type MenuItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	Prompt      string   `json:"prompt,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Keywords    Keywords `json:"-"`
}

// Catalog holds the menu items in declaration order. It is never mutated after construction.
type Catalog struct {
	items []MenuItem
	byID  map[string]int
}

type rawItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Prompt      string   `json:"prompt"`
	Ingredients []string `json:"ingredients"`
}

// NewCatalog validates items and derives missing keyword sets.
func NewCatalog(items ...MenuItem) (*Catalog, error) {
	c := &Catalog{items: make([]MenuItem, 0, len(items)), byID: make(map[string]int, len(items))}
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			return nil, fmt.Errorf("menu item %q: %w", it.Title, ErrMissingID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		if it.Keywords == nil {
			it.Keywords = ExtractKeywords(it)
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Load reads a catalog JSON file with the straightshakes/shotshakes/icecream/vegan groups.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open menu: %w", err)
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse menu %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document. Groups are read in the fixed Categories order so
// iteration order does not depend on JSON key order.
func Parse(r io.Reader) (*Catalog, error) {
	var doc map[string][]rawItem
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	var items []MenuItem
	for _, cat := range Categories {
		for _, ri := range doc[string(cat)] {
			title := strings.TrimSpace(ri.Title)
			if title == "" {
				return nil, fmt.Errorf("%s item %q: %w", cat, ri.ID, ErrMissingTitle)
			}
			id := strings.TrimSpace(ri.ID)
			if id == "" {
				id = Slug(title)
			}
			items = append(items, MenuItem{
				ID:          id,
				Title:       title,
				Category:    cat,
				Prompt:      ri.Prompt,
				Ingredients: ri.Ingredients,
			})
		}
	}
	return NewCatalog(items...)
}

// Items returns the items in declaration order.
func (c *Catalog) Items() []MenuItem {
	if c == nil {
		return nil
	}
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len is the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// ByID looks an item up by its stable id.
func (c *Catalog) ByID(id string) (MenuItem, bool) {
	if c == nil {
		return MenuItem{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return MenuItem{}, false
	}
	return c.items[i], true
}

// ByTitle finds the item whose title equals title, ignoring case and accents.
func (c *Catalog) ByTitle(title string) (MenuItem, bool) {
	want := Fold(strings.TrimSpace(title))
	for _, it := range c.Items() {
		if Fold(it.Title) == want {
			return it, true
		}
	}
	return MenuItem{}, false
}

// InCategory returns the items of one group, in order.
func (c *Catalog) InCategory(cat Category) []MenuItem {
	var out []MenuItem
	for _, it := range c.Items() {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// Titles lists every title in catalog order (used to build vision prompts).
func (c *Catalog) Titles() []string {
	items := c.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

// Slug turns a title into an id: lower-case, accents folded, spaces to dashes.
func Slug(title string) string {
	words := strings.Fields(Fold(title))
	return strings.Join(words, "-")
}
