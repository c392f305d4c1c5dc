package bankapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"qbank/internal/domain"
	"qbank/internal/log"
)

func writeTempPDF(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestValidateUpload(t *testing.T) {
	pdf := writeTempPDF(t, "book.pdf", 128)

	t.Run("accepts_valid_input", func(t *testing.T) {
		if err := ValidateUpload(pdf, "algebra_1"); err != nil {
			t.Errorf("ValidateUpload() error = %v, want nil", err)
		}
	})

	t.Run("rejects_non_pdf", func(t *testing.T) {
		txt := writeTempPDF(t, "notes.txt", 16)
		if err := ValidateUpload(txt, "algebra"); !errors.Is(err, domain.ErrNotPDF) {
			t.Errorf("error = %v, want ErrNotPDF", err)
		}
	})

	t.Run("accepts_uppercase_extension", func(t *testing.T) {
		upper := writeTempPDF(t, "BOOK.PDF", 16)
		if err := ValidateUpload(upper, "algebra"); err != nil {
			t.Errorf("ValidateUpload() error = %v, want nil", err)
		}
	})

	t.Run("rejects_missing_file", func(t *testing.T) {
		if err := ValidateUpload("/nonexistent/book.pdf", "algebra"); err == nil {
			t.Error("ValidateUpload() = nil for a missing file")
		}
	})

	t.Run("rejects_bad_book_names", func(t *testing.T) {
		for _, name := range []string{"", "my book", "book/../x", "book!", "книга"} {
			if err := ValidateUpload(pdf, name); !errors.Is(err, domain.ErrInvalidBookName) {
				t.Errorf("ValidateUpload(%q) error = %v, want ErrInvalidBookName", name, err)
			}
		}
	})
}

func TestClient_UploadPDF(t *testing.T) {
	pdf := writeTempPDF(t, "book.pdf", 1024)

	t.Run("submits_multipart_form", func(t *testing.T) {
		var gotBookName, gotMode, gotFilename string
		var gotFileSize int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/upload_pdf" {
				t.Errorf("got %s %s, want POST /upload_pdf", r.Method, r.URL.Path)
			}
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			gotBookName = r.FormValue("book_name")
			gotMode = r.FormValue("processing_mode")

			file, header, err := r.FormFile("pdf_file")
			if err != nil {
				t.Fatalf("missing pdf_file part: %v", err)
			}
			defer file.Close()
			gotFilename = header.Filename
			gotFileSize = int(header.Size)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": true, "status_id": "job-42", "book_name": "algebra1"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "tok", log.NullLogger())
		statusID, err := client.UploadPDF(context.Background(), pdf, "algebra1", ModeComplete)
		if err != nil {
			t.Fatalf("UploadPDF() error = %v", err)
		}

		if statusID != "job-42" {
			t.Errorf("statusID = %q, want %q", statusID, "job-42")
		}
		if gotBookName != "algebra1" {
			t.Errorf("book_name = %q, want %q", gotBookName, "algebra1")
		}
		if gotMode != ModeComplete {
			t.Errorf("processing_mode = %q, want %q", gotMode, ModeComplete)
		}
		if gotFilename != "book.pdf" {
			t.Errorf("filename = %q, want %q", gotFilename, "book.pdf")
		}
		if gotFileSize != 1024 {
			t.Errorf("file size = %d, want 1024", gotFileSize)
		}
	})

	t.Run("413_maps_to_file_too_large", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}))
		defer server.Close()

		client := NewClient(server.URL, "tok", log.NullLogger())
		_, err := client.UploadPDF(context.Background(), pdf, "algebra1", ModeComplete)
		if !errors.Is(err, domain.ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("rejection_surfaces_server_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": false, "error": "book already exists"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "tok", log.NullLogger())
		_, err := client.UploadPDF(context.Background(), pdf, "algebra1", ModeComplete)
		if err == nil {
			t.Fatal("UploadPDF() = nil error for a rejected upload")
		}
	})
}
