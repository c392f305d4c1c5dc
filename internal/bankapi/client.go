// Package bankapi is the HTTP client for the question bank server.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qbank/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 10 * time.Minute // Large PDFs over slow links
	userAgent      = "qbank/1.0"
	apiPrefix      = "/api/"
)

// Client implements domain.BankRepository, domain.QuestionWriter,
// domain.RawStore, domain.TextStore and domain.StatusSource against the
// bank server's JSON API.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	uploadClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a new bank API client. token may be empty for the
// login flow; authenticated endpoints will fail with ErrAuthRequired.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		uploadClient: &http.Client{
			Timeout: uploadTimeout,
		},
		logger: logger,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL returns the URL serving an image within a book.
func (c *Client) ImageURL(book string, ref domain.ImageRef) string {
	return fmt.Sprintf("%s/images/%s/%s", c.baseURL, book, ref)
}

// doRequest performs a request against the server and returns the raw
// body. Requests under /api/ carry the bearer token; a 401 from any path
// maps to domain.ErrAuthRequired so callers handle expiry uniformly.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = reqURL + "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" && strings.HasPrefix(path, apiPrefix) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("bank request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("bank request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode >= 400:
		c.logger.Error("bank request error", "status", resp.StatusCode, "body", string(respBody))
		var errResp apiResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

// getJSON performs a GET and decodes the response into dest.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func bookQuery(book string) url.Values {
	query := url.Values{}
	query.Set("book", book)
	return query
}

// Books returns the book identifiers available for mapping.
func (c *Client) Books(ctx context.Context) ([]string, error) {
	var books []string
	if err := c.getJSON(ctx, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Folders returns the image folder names for a book.
func (c *Client) Folders(ctx context.Context, book string) ([]string, error) {
	var folders []string
	if err := c.getJSON(ctx, "/api/folders", bookQuery(book), &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// FolderImages returns the image refs in one folder of a book. A missing
// folder yields an empty list on the server side, not an error.
func (c *Client) FolderImages(ctx context.Context, book, folder string) ([]domain.ImageRef, error) {
	var images []domain.ImageRef
	path := "/api/images/" + url.PathEscape(folder)
	if err := c.getJSON(ctx, path, bookQuery(book), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// Questions returns all question records for a book.
func (c *Client) Questions(ctx context.Context, book string) ([]domain.Question, error) {
	var questions []domain.Question
	if err := c.getJSON(ctx, "/api/questions", bookQuery(book), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// CreateQuestion adds a record and returns it with its assigned index.
func (c *Client) CreateQuestion(ctx context.Context, q domain.Question) (*domain.Question, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/questions", nil, questionPayload(q))
	if err != nil {
		return nil, err
	}
	return decodeQuestionResponse(body)
}

// UpdateQuestion replaces the record identified by q.Index.
func (c *Client) UpdateQuestion(ctx context.Context, q domain.Question) (*domain.Question, error) {
	path := fmt.Sprintf("/api/questions/%d", q.Index)
	body, err := c.doRequest(ctx, http.MethodPut, path, nil, questionPayload(q))
	if err != nil {
		return nil, err
	}
	return decodeQuestionResponse(body)
}

// DeleteQuestion removes the record with the given index from a book.
func (c *Client) DeleteQuestion(ctx context.Context, book string, index int) error {
	path := fmt.Sprintf("/api/questions/%d", index)
	body, err := c.doRequest(ctx, http.MethodDelete, path, bookQuery(book), nil)
	if err != nil {
		return err
	}
	return decodeAck(body)
}

// RawJSON returns the book's raw mapping file content. A book with no
// mapping yet yields "[]".
func (c *Client) RawJSON(ctx context.Context, book string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/json/raw", bookQuery(book), nil)
	if err != nil {
		return "", err
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("server rejected request: %s", resp.Error)
	}
	return resp.Content, nil
}

// SaveRawJSON replaces the book's raw mapping file content. Content must
// already be valid JSON; the service layer validates before calling.
func (c *Client) SaveRawJSON(ctx context.Context, book, content string) error {
	payload := map[string]string{"content": content, "book": book}
	body, err := c.doRequest(ctx, http.MethodPost, "/api/json/raw", nil, payload)
	if err != nil {
		return err
	}
	return decodeAck(body)
}

// FolderText returns the text annotation stored alongside a folder.
func (c *Client) FolderText(ctx context.Context, book, folder string) (string, error) {
	path := "/api/text/" + url.PathEscape(folder)
	body, err := c.doRequest(ctx, http.MethodGet, path, bookQuery(book), nil)
	if err != nil {
		return "", err
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("server rejected request: %s", resp.Error)
	}
	return resp.Content, nil
}

// SaveFolderText replaces the text annotation for a folder.
func (c *Client) SaveFolderText(ctx context.Context, book, folder, content string) error {
	path := "/api/text/" + url.PathEscape(folder)
	payload := map[string]string{"content": content, "book": book}
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	return decodeAck(body)
}

// ProcessingStatus polls one snapshot of an ingestion job.
func (c *Client) ProcessingStatus(ctx context.Context, statusID string) (*domain.ProcessingStatus, error) {
	var status domain.ProcessingStatus
	path := "/processing_status/" + url.PathEscape(statusID)
	if err := c.getJSON(ctx, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CleanupStatus discards a finished job record on the server.
func (c *Client) CleanupStatus(ctx context.Context, statusID string) error {
	path := "/cleanup_status/" + url.PathEscape(statusID)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// AllStatuses returns every tracked job, keyed by status ID. Debug aid.
func (c *Client) AllStatuses(ctx context.Context) (map[string]domain.ProcessingStatus, error) {
	var statuses map[string]domain.ProcessingStatus
	if err := c.getJSON(ctx, "/all_processing_statuses", nil, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}
