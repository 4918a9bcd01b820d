package domain

import "errors"

// Pipeline errors. Callers match on these with errors.Is; the wrapping
// message carries the detail.
var (
	// ErrNotFound indicates the document path does not exist or is unreadable
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat indicates the file is not a recognised PDF or Word document
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidConfiguration indicates a configuration value is out of range
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingService indicates the embedding call failed or timed out
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrCompletionService indicates the completion call failed or timed out
	ErrCompletionService = errors.New("completion service error")

	// ErrEmptyIndex indicates a query against an index with no entries
	ErrEmptyIndex = errors.New("empty index")

	// ErrDimensionMismatch indicates vectors of different lengths were mixed
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, "NotFound"},
	{ErrUnsupportedFormat, "UnsupportedFormat"},
	{ErrInvalidConfiguration, "InvalidConfiguration"},
	{ErrEmbeddingService, "EmbeddingServiceError"},
	{ErrCompletionService, "CompletionServiceError"},
	{ErrEmptyIndex, "EmptyIndex"},
	{ErrDimensionMismatch, "DimensionMismatch"},
}

// Kind returns the name of the first pipeline error err wraps, or "Internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
