package domain

import "context"

// BankRepository is the read-side browsing surface of the bank server.
// All queries are scoped by book.
type BankRepository interface {
	Books(ctx context.Context) ([]string, error)
	Folders(ctx context.Context, book string) ([]string, error)
	FolderImages(ctx context.Context, book, folder string) ([]ImageRef, error)
	Questions(ctx context.Context, book string) ([]Question, error)
}

// QuestionWriter mutates question records. Create returns the record as
// stored, including its server-assigned index.
type QuestionWriter interface {
	CreateQuestion(ctx context.Context, q Question) (*Question, error)
	UpdateQuestion(ctx context.Context, q Question) (*Question, error)
	DeleteQuestion(ctx context.Context, book string, index int) error
}

// RawStore reads and writes the raw JSON mapping file behind a book.
type RawStore interface {
	RawJSON(ctx context.Context, book string) (string, error)
	SaveRawJSON(ctx context.Context, book, content string) error
}

// TextStore reads and writes per-folder text annotations.
type TextStore interface {
	FolderText(ctx context.Context, book, folder string) (string, error)
	SaveFolderText(ctx context.Context, book, folder, content string) error
}

// StatusSource polls and discards server-side processing jobs.
type StatusSource interface {
	ProcessingStatus(ctx context.Context, statusID string) (*ProcessingStatus, error)
	CleanupStatus(ctx context.Context, statusID string) error
}

// Store caches browse results locally so the console is usable while the
// server is slow and across restarts.
type Store interface {
	GetBooks() ([]string, bool)
	SaveBooks(books []string) error
	GetFolders(book string) ([]string, bool)
	SaveFolders(book string, folders []string) error
	GetFolderImages(book, folder string) ([]ImageRef, bool)
	SaveFolderImages(book, folder string, images []ImageRef) error
	GetQuestions(book string) ([]Question, bool)
	SaveQuestions(book string, questions []Question) error
	InvalidateBook(book string)
	InvalidateAll()
	Close() error
}
