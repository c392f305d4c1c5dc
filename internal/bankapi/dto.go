package bankapi

import (
	"encoding/json"
	"fmt"

	"qbank/internal/domain"
)

// apiResponse is the server's common success/error envelope.
type apiResponse struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Message  string           `json:"message,omitempty"`
	Content  string           `json:"content,omitempty"`
	Question *domain.Question `json:"question,omitempty"`
}

// uploadResponse is returned by POST /upload_pdf.
type uploadResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
	StatusID string `json:"status_id,omitempty"`
	BookName string `json:"book_name,omitempty"`
}

// loginResponse is returned by POST /api/login.
type loginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// verifyResponse is returned by POST /api/verify-token.
type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  *domain.User `json:"user,omitempty"`
}

// questionPayload shapes a record for create/update requests. The index
// is omitted: the server assigns it on create and takes it from the URL
// on update.
func questionPayload(q domain.Question) map[string]any {
	question := q.QuestionImages
	if question == nil {
		question = []domain.ImageRef{}
	}
	answer := q.AnswerImages
	if answer == nil {
		answer = []domain.ImageRef{}
	}
	return map[string]any{
		"subject":        q.Subject,
		"chapter":        q.Chapter,
		"lesson":         q.Lesson,
		"question":       q.Text,
		"answer":         q.Answer,
		"difficulty":     q.Difficulty,
		"image_question": question,
		"image_answer":   answer,
		"book":           q.Book,
	}
}

func decodeQuestionResponse(body []byte) (*domain.Question, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("server rejected request: %s", resp.Error)
	}
	if resp.Question == nil {
		return nil, fmt.Errorf("no question returned from server")
	}
	return resp.Question, nil
}

func decodeAck(body []byte) error {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("server rejected request: %s", resp.Error)
	}
	return nil
}
