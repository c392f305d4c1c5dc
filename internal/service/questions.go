package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"qbank/internal/domain"
)

// QuestionService handles question record mutations and the raw-JSON and
// folder-text escape hatches. Reads go through LibraryService; this
// service only writes, refreshing the persistent question cache after
// each successful mutation.
type QuestionService struct {
	writer  domain.QuestionWriter
	raw     domain.RawStore
	text    domain.TextStore
	library *LibraryService
	logger  *slog.Logger
}

// NewQuestionService creates a question service.
func NewQuestionService(writer domain.QuestionWriter, raw domain.RawStore, text domain.TextStore, library *LibraryService, logger *slog.Logger) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{
		writer:  writer,
		raw:     raw,
		text:    text,
		library: library,
		logger:  logger,
	}
}

// Create appends a question record to the active book. The record's
// Book field is stamped with the active book before it is sent.
func (s *QuestionService) Create(ctx context.Context, q domain.Question) (*domain.Question, error) {
	book := s.library.ActiveBook()
	q.Book = book
	created, err := s.writer.CreateQuestion(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Info("question created", "book", book, "index", created.Index)
	s.refreshQuestions(ctx, book)
	return created, nil
}

// Update replaces the question at index in the active book.
func (s *QuestionService) Update(ctx context.Context, index int, q domain.Question) (*domain.Question, error) {
	book := s.library.ActiveBook()
	q.Book = book
	q.Index = index
	updated, err := s.writer.UpdateQuestion(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Info("question updated", "book", book, "index", index)
	s.refreshQuestions(ctx, book)
	return updated, nil
}

// Delete removes the question at index from the active book. Later
// records shift down server-side, so cached indices are refreshed.
func (s *QuestionService) Delete(ctx context.Context, index int) error {
	book := s.library.ActiveBook()
	if err := s.writer.DeleteQuestion(ctx, book, index); err != nil {
		return err
	}
	s.logger.Info("question deleted", "book", book, "index", index)
	s.refreshQuestions(ctx, book)
	return nil
}

func (s *QuestionService) refreshQuestions(ctx context.Context, book string) {
	if _, err := s.library.Questions(ctx); err != nil {
		s.logger.Warn("question cache refresh failed", "error", err, "book", book)
	}
}

// RawJSON returns the active book's question file verbatim for the
// raw editor.
func (s *QuestionService) RawJSON(ctx context.Context) (string, error) {
	return s.raw.RawJSON(ctx, s.library.ActiveBook())
}

// SaveRawJSON overwrites the active book's question file. The content is
// validated locally first; malformed input is rejected with
// ErrInvalidJSON before anything reaches the server.
func (s *QuestionService) SaveRawJSON(ctx context.Context, content string) error {
	if !json.Valid([]byte(content)) {
		return domain.ErrInvalidJSON
	}
	book := s.library.ActiveBook()
	if err := s.raw.SaveRawJSON(ctx, book, content); err != nil {
		return err
	}
	s.logger.Info("raw question file saved", "book", book)
	s.refreshQuestions(ctx, book)
	return nil
}

// FolderText returns the OCR text extracted for a folder.
func (s *QuestionService) FolderText(ctx context.Context, folder string) (string, error) {
	return s.text.FolderText(ctx, s.library.ActiveBook(), folder)
}

// SaveFolderText stores corrected OCR text for a folder.
func (s *QuestionService) SaveFolderText(ctx context.Context, folder, content string) error {
	book := s.library.ActiveBook()
	if err := s.text.SaveFolderText(ctx, book, folder, content); err != nil {
		return err
	}
	s.logger.Info("folder text saved", "book", book, "folder", folder)
	return nil
}
