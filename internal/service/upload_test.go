package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qbank/internal/domain"
	"qbank/internal/log"
)

type fakeUploader struct {
	statusID string
	err      error
	gotPath  string
	gotBook  string
	gotMode  string
}

func (u *fakeUploader) UploadPDF(ctx context.Context, pdfPath, bookName, mode string) (string, error) {
	u.gotPath = pdfPath
	u.gotBook = bookName
	u.gotMode = mode
	return u.statusID, u.err
}

func TestUploadService_Submit(t *testing.T) {
	t.Run("validation_failure_never_uploads", func(t *testing.T) {
		uploader := &fakeUploader{statusID: "job-1"}
		source := &scriptedSource{script: []domain.ProcessingStatus{{Status: domain.StatusRunning}}}
		poller := NewStatusPoller(source, testPollerConfig(), log.NullLogger())
		library := NewLibraryService(newBlockingRepo(), nil, log.NullLogger())
		svc := NewUploadService(uploader, poller, library, log.NullLogger())

		_, err := svc.Submit(context.Background(), "/nonexistent/book.pdf", "algebra1", "complete", PollerCallbacks{})
		if err == nil {
			t.Fatal("Submit() = nil error for a missing file")
		}
		if uploader.gotPath != "" {
			t.Error("upload was attempted despite failed validation")
		}
		if poller.IsActive() {
			t.Error("poller started despite failed validation")
		}
	})

	t.Run("upload_error_surfaces_without_polling", func(t *testing.T) {
		pdf := writeServiceTestPDF(t)
		uploader := &fakeUploader{err: errors.New("server rejected the upload")}
		source := &scriptedSource{script: []domain.ProcessingStatus{{Status: domain.StatusRunning}}}
		poller := NewStatusPoller(source, testPollerConfig(), log.NullLogger())
		library := NewLibraryService(newBlockingRepo(), nil, log.NullLogger())
		svc := NewUploadService(uploader, poller, library, log.NullLogger())

		_, err := svc.Submit(context.Background(), pdf, "algebra1", "complete", PollerCallbacks{})
		if err == nil {
			t.Fatal("Submit() = nil error when the upload fails")
		}
		if poller.IsActive() {
			t.Error("poller started despite a failed upload")
		}
	})

	t.Run("completion_activates_ingested_book", func(t *testing.T) {
		pdf := writeServiceTestPDF(t)
		uploader := &fakeUploader{statusID: "job-7"}
		source := &scriptedSource{
			script: []domain.ProcessingStatus{
				{Status: domain.StatusRunning, Progress: 50},
				{Status: domain.StatusCompleted, Progress: 100, BookName: "algebra1"},
			},
		}
		poller := NewStatusPoller(source, testPollerConfig(), log.NullLogger())
		library := NewLibraryService(newBlockingRepo(), nil, log.NullLogger())
		svc := NewUploadService(uploader, poller, library, log.NullLogger())

		done := make(chan domain.ProcessingStatus, 1)
		statusID, err := svc.Submit(context.Background(), pdf, "algebra1", "step_by_step", PollerCallbacks{
			OnCompleted: func(status domain.ProcessingStatus) { done <- status },
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if statusID != "job-7" {
			t.Errorf("statusID = %q, want %q", statusID, "job-7")
		}
		if uploader.gotMode != "step_by_step" {
			t.Errorf("mode = %q, want %q", uploader.gotMode, "step_by_step")
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("OnCompleted never fired")
		}

		if got := library.ActiveBook(); got != "books_cropped/algebra1" {
			t.Errorf("ActiveBook() = %q, want %q", got, "books_cropped/algebra1")
		}
	})
}

func writeServiceTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
