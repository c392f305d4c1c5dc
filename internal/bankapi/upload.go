package bankapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"qbank/internal/domain"
)

// maxUploadSize mirrors the server's MAX_CONTENT_LENGTH.
const maxUploadSize = 100 << 20 // 100MB

// Processing modes accepted by the upload endpoint.
const (
	ModeComplete   = "complete"
	ModeStepByStep = "step_by_step"
)

var bookNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateUpload runs the client-side checks the server will repeat:
// PDF extension, size limit, and book name charset. It is a convenience
// for fast feedback, not a security boundary.
func ValidateUpload(pdfPath, bookName string) error {
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return domain.ErrNotPDF
	}
	info, err := os.Stat(pdfPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", pdfPath, err)
	}
	if info.Size() > maxUploadSize {
		return domain.ErrFileTooLarge
	}
	if !bookNamePattern.MatchString(bookName) {
		return domain.ErrInvalidBookName
	}
	return nil
}

// UploadPDF validates and submits a PDF for ingestion, returning the
// status ID used to poll /processing_status/{id}.
func (c *Client) UploadPDF(ctx context.Context, pdfPath, bookName, mode string) (string, error) {
	if err := ValidateUpload(pdfPath, bookName); err != nil {
		return "", err
	}
	if mode == "" {
		mode = ModeComplete
	}

	file, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	// Stream the multipart body through a pipe so the whole PDF is never
	// held in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(writer, file, filepath.Base(pdfPath), bookName, mode)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_pdf", pr)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	c.logger.Info("uploading PDF", "file", filepath.Base(pdfPath), "book", bookName, "mode", mode)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		c.logger.Error("upload failed", "error", err)
		return "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", domain.ErrFileTooLarge
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("upload error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if !uploadResp.Success {
		return "", fmt.Errorf("upload rejected: %s", uploadResp.Error)
	}
	if uploadResp.StatusID == "" {
		return "", fmt.Errorf("no status id returned from server")
	}

	c.logger.Info("upload accepted", "status_id", uploadResp.StatusID)
	return uploadResp.StatusID, nil
}

func writeUploadForm(writer *multipart.Writer, file io.Reader, filename, bookName, mode string) error {
	part, err := writer.CreateFormFile("pdf_file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy PDF data: %w", err)
	}
	if err := writer.WriteField("book_name", bookName); err != nil {
		return fmt.Errorf("failed to write book_name field: %w", err)
	}
	if err := writer.WriteField("processing_mode", mode); err != nil {
		return fmt.Errorf("failed to write processing_mode field: %w", err)
	}
	return nil
}
