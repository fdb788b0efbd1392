package extraction

// TextExtractor recognizes the full text of a receipt image.
type TextExtractor interface {
	// DetectText returns all text recognized in the image. An image with no
	// recognizable text yields an empty string, not an error.
	DetectText(image []byte) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}

// StructuredExtractor turns a parsing prompt into a JSON document string.
type StructuredExtractor interface {
	// Generate sends the prompt and returns the raw response text. The
	// response is untrusted until parsed and validated by the caller.
	Generate(prompt string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
