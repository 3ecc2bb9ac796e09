package reduce

import "errors"

var (
	// ErrInvalidQuality is returned for a JPEG quality outside 1..100.
	ErrInvalidQuality = errors.New("image quality must be between 1 and 100")

	// ErrSamePath is returned when the output path equals the input path.
	ErrSamePath = errors.New("output path must differ from input path")

	// ErrExtract is returned when the images of a document cannot be listed.
	ErrExtract = errors.New("failed to extract images")
)
