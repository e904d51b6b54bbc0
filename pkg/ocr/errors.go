package ocr

import "errors"

// ErrNoText is returned when no OCR pass recognised any text.
var ErrNoText = errors.New("no text detected")
