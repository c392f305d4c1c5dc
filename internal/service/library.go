package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"qbank/internal/domain"
)

const defaultTimeout = 10 * time.Second

// LibraryService tracks the active (book, folder) context and caches the
// image list for the selected folder. All browse queries are implicitly
// scoped by the active book.
//
// Folder loads are guarded against out-of-order completion: each load
// bumps a generation counter and a response is applied only if its
// generation is still current, so a slow response for folder A can never
// overwrite a newer load of folder B.
type LibraryService struct {
	repo   domain.BankRepository
	store  domain.Store // optional persistent cache, may be nil
	logger *slog.Logger

	mu     sync.Mutex
	book   string
	folder string
	images []domain.ImageRef
	gen    uint64
}

// NewLibraryService creates a library service scoped to the default book.
func NewLibraryService(repo domain.BankRepository, store domain.Store, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{
		repo:   repo,
		store:  store,
		logger: logger,
		book:   domain.DefaultBook,
	}
}

// ActiveBook returns the book scoping all queries.
func (s *LibraryService) ActiveBook() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

// ActiveFolder returns the folder whose images are currently cached.
func (s *LibraryService) ActiveFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// SetBook switches the active book. The folder selection and the cached
// image list are invalidated; any in-flight folder load is superseded.
// Returns true if the book actually changed.
func (s *LibraryService) SetBook(book string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if book == s.book {
		return false
	}
	s.book = book
	s.folder = ""
	s.images = nil
	s.gen++
	s.logger.Info("switched book", "book", book)
	return true
}

// Books returns the book identifiers. On a fetch failure the persistent
// cache is consulted before the error is surfaced.
func (s *LibraryService) Books(ctx context.Context) ([]string, error) {
	books, err := s.repo.Books(ctx)
	if err != nil {
		if cached, ok := s.cachedBooks(); ok {
			s.logger.Warn("book list fetch failed, serving cache", "error", err)
			return cached, nil
		}
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveBooks(books); err != nil {
			s.logger.Warn("failed to cache book list", "error", err)
		}
	}
	return books, nil
}

func (s *LibraryService) cachedBooks() ([]string, bool) {
	if s.store == nil {
		return nil, false
	}
	return s.store.GetBooks()
}

// Folders returns the folder names of the active book, cache-backed the
// same way as Books.
func (s *LibraryService) Folders(ctx context.Context) ([]string, error) {
	book := s.ActiveBook()

	folders, err := s.repo.Folders(ctx, book)
	if err != nil {
		if s.store != nil {
			if cached, ok := s.store.GetFolders(book); ok {
				s.logger.Warn("folder list fetch failed, serving cache", "error", err, "book", book)
				return cached, nil
			}
		}
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveFolders(book, folders); err != nil {
			s.logger.Warn("failed to cache folder list", "error", err, "book", book)
		}
	}
	return folders, nil
}

// LoadImages selects folder and fetches its image list, replacing the
// cached one. An empty folder clears the cache without a fetch. If a
// newer LoadImages (or SetBook) happens while the fetch is in flight,
// the response is discarded and ErrSuperseded returned; the cache is
// left exactly as the newer operation set it. A fetch failure leaves
// the previous cache untouched.
func (s *LibraryService) LoadImages(ctx context.Context, folder string) ([]domain.ImageRef, error) {
	s.mu.Lock()
	s.folder = folder
	s.gen++
	gen := s.gen
	book := s.book
	if folder == "" {
		s.images = nil
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	images, err := s.repo.FolderImages(ctx, book, folder)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// A newer load owns the cache now.
		s.logger.Debug("discarding stale folder load", "book", book, "folder", folder)
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		s.logger.Error("failed to load folder images", "error", err, "book", book, "folder", folder)
		return nil, err
	}

	s.images = images
	if s.store != nil {
		if err := s.store.SaveFolderImages(book, folder, images); err != nil {
			s.logger.Warn("failed to cache folder images", "error", err)
		}
	}
	return images, nil
}

// CurrentImages returns the cached image list for the active folder.
func (s *LibraryService) CurrentImages() []domain.ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := make([]domain.ImageRef, len(s.images))
	copy(images, s.images)
	return images
}

// Questions returns the active book's question records, cache-backed.
func (s *LibraryService) Questions(ctx context.Context) ([]domain.Question, error) {
	book := s.ActiveBook()

	questions, err := s.repo.Questions(ctx, book)
	if err != nil {
		if s.store != nil {
			if cached, ok := s.store.GetQuestions(book); ok {
				s.logger.Warn("question list fetch failed, serving cache", "error", err, "book", book)
				return cached, nil
			}
		}
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveQuestions(book, questions); err != nil {
			s.logger.Warn("failed to cache questions", "error", err, "book", book)
		}
	}
	return questions, nil
}

// InvalidateBook drops everything cached for a book, e.g. after a
// completed upload replaced its contents.
func (s *LibraryService) InvalidateBook(book string) {
	if s.store != nil {
		s.store.InvalidateBook(book)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if book == s.book {
		s.folder = ""
		s.images = nil
		s.gen++
	}
}
