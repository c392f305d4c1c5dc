package domain

import "strings"

// DefaultBook is the book the server falls back to when none is given.
const DefaultBook = "cropped"

// booksDir is where newly ingested books land on the server.
const booksDir = "books_cropped"

// BookPath returns the book identifier for a freshly processed book name,
// e.g. "algebra1" -> "books_cropped/algebra1".
func BookPath(name string) string {
	return booksDir + "/" + name
}

// BookDisplayName strips the books directory prefix for display.
func BookDisplayName(path string) string {
	return strings.TrimPrefix(path, booksDir+"/")
}
