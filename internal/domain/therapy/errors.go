package therapy

import "errors"

// ErrQuotaExceeded indicates the model endpoint returned HTTP 429.
var ErrQuotaExceeded = errors.New("model quota exceeded")

// ErrEmptyContent indicates a 2xx response without usable message content.
var ErrEmptyContent = errors.New("model returned empty content")

// ErrUnusableContent indicates content that could not be parsed as a JSON object.
var ErrUnusableContent = errors.New("model content is not a JSON object")

var (
	ErrMissingInput = errors.New("missing input: provide an image or a description")
	ErrNotFound     = errors.New("record not found")
)
