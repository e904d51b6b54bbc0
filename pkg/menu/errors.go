package menu

import "errors"

var (
	// ErrMissingID is returned by NewCatalog for an item without an id.
	ErrMissingID = errors.New("menu item has no id")
	// ErrMissingTitle is returned when a catalog entry has no title.
	ErrMissingTitle = errors.New("menu item has no title")
	// ErrDuplicateID is returned when two items share an id.
	ErrDuplicateID = errors.New("duplicate menu item id")
	// ErrUnknownCategory is returned by ParseCategory.
	ErrUnknownCategory = errors.New("unknown menu category")
)
