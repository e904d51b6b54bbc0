package assets

import "errors"

var (
	// ErrNoFreeName is returned when every _N suffix up to the limit is taken.
	ErrNoFreeName = errors.New("no free file name")
	// ErrBadFormat is returned for an output format other than jpeg or png.
	ErrBadFormat = errors.New("unsupported output format")
	// ErrDestIsSource is returned when an output directory resolves to the input directory.
	ErrDestIsSource = errors.New("destination is the source directory")
)
