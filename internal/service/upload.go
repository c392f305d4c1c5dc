package service

import (
	"context"
	"log/slog"

	"qbank/internal/bankapi"
	"qbank/internal/domain"
)

// Uploader sends a PDF for ingestion and returns the status id to poll.
type Uploader interface {
	UploadPDF(ctx context.Context, pdfPath, bookName, mode string) (string, error)
}

// UploadService ties PDF submission to job tracking: it validates and
// uploads the file, then hands the returned status id to the poller. On
// completion the freshly ingested book becomes the active one and its
// caches are invalidated so the next browse sees the new content.
type UploadService struct {
	uploader Uploader
	poller   *StatusPoller
	library  *LibraryService
	logger   *slog.Logger
}

// NewUploadService creates an upload service.
func NewUploadService(uploader Uploader, poller *StatusPoller, library *LibraryService, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		uploader: uploader,
		poller:   poller,
		library:  library,
		logger:   logger,
	}
}

// Poller exposes the job tracker so the UI can cancel or inspect it.
func (s *UploadService) Poller() *StatusPoller {
	return s.poller
}

// Submit validates and uploads a PDF, then starts polling the resulting
// job. cb receives progress and terminal notifications; the service
// installs its own completion hook ahead of the caller's to switch the
// library onto the new book.
func (s *UploadService) Submit(ctx context.Context, pdfPath, bookName, mode string, cb PollerCallbacks) (string, error) {
	if err := bankapi.ValidateUpload(pdfPath, bookName); err != nil {
		return "", err
	}

	statusID, err := s.uploader.UploadPDF(ctx, pdfPath, bookName, mode)
	if err != nil {
		s.logger.Error("upload failed", "path", pdfPath, "book_name", bookName, "error", err)
		return "", err
	}
	s.logger.Info("upload accepted", "status_id", statusID, "book_name", bookName, "mode", mode)

	userCompleted := cb.OnCompleted
	cb.OnCompleted = func(status domain.ProcessingStatus) {
		s.activateIngested(status, bookName)
		if userCompleted != nil {
			userCompleted(status)
		}
	}

	s.poller.Start(statusID, cb)
	return statusID, nil
}

// activateIngested switches the library to the book the job produced and
// drops any stale cache for it.
func (s *UploadService) activateIngested(status domain.ProcessingStatus, submittedName string) {
	name := status.BookName
	if name == "" {
		name = submittedName
	}
	book := domain.BookPath(name)
	s.library.InvalidateBook(book)
	s.library.SetBook(book)
	s.logger.Info("switched to ingested book", "book", book)
}

// Cancel aborts tracking of the current job and discards its server-side
// record.
func (s *UploadService) Cancel() {
	s.poller.StopAndCleanup()
}
