// Package interfaces provides service interfaces for dependency injection.
package interfaces

// StringExtractor pulls printable strings out of a binary file on disk.
// Used exclusively by the built-in metadata extractors, which stage file
// content into a scratch file because extraction operates on a path,
// not an in-memory buffer.
type StringExtractor interface {
	// Strings returns the printable strings found in the file at path.
	Strings(path string) ([]string, error)
}
