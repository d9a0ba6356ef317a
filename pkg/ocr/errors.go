package ocr

import "errors"

// ErrEmptyImage is returned when the input bitmap is nil or has no pixels.
var ErrEmptyImage = errors.New("empty image")

// ErrNoOrientation is returned when the engine cannot report page orientation.
var ErrNoOrientation = errors.New("orientation not detected")
