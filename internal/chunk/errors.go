package chunk

import "errors"

// ErrInvalidConfig indicates chunker parameters that cannot produce a valid
// segmentation, such as an overlap at or above the chunk size.
var ErrInvalidConfig = errors.New("invalid chunker configuration")
