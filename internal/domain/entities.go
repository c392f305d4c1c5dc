package domain

import "fmt"

// ImageRef is a path identifying one cropped image relative to a
// (book, folder) root. It has no lifecycle of its own; it is purely a key
// into the server's image tree and is served at /images/{book}/{ref}.
type ImageRef string

// Difficulty levels accepted by the bank server.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is one record in a book's question bank. The server is the
// source of truth; the client holds a transient copy while a create or
// edit operation is in flight. Index is server-assigned and immutable
// once created. JSON names follow the server's wire format.
type Question struct {
	Index          int        `json:"index"`
	Text           string     `json:"question"`
	Answer         string     `json:"answer"`
	QuestionImages []ImageRef `json:"image_question"`
	AnswerImages   []ImageRef `json:"image_answer"`
	Difficulty     string     `json:"difficulty"`
	Chapter        string     `json:"chapter"`
	Subject        string     `json:"subject"`
	Lesson         string     `json:"lesson"`
	Book           string     `json:"book"`
}

// User is the identity resolved by a successful token verification.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Processing job states reported by /processing_status/{id}.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Processing stages. The set is open-ended on the server side; the client
// only special-cases the three it knows how to describe.
const (
	StagePDFConvert = "pdf_convert"
	StageDetect     = "yolo_detect"
	StageOCR        = "ocr"
)

// ProcessingStatus is one snapshot of a server-side PDF ingestion job.
// The status ID is opaque and server-issued at upload time.
type ProcessingStatus struct {
	StatusID string `json:"status_id,omitempty"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Stage    string `json:"stage,omitempty"`

	// Stage detail, populated depending on Stage.
	CurrentPage   int    `json:"current_page,omitempty"`
	TotalPages    int    `json:"total_pages,omitempty"`
	CurrentImage  int    `json:"current_image,omitempty"`
	TotalImages   int    `json:"total_images,omitempty"`
	CurrentFolder string `json:"current_folder,omitempty"`

	BookName string `json:"book_name,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (s *ProcessingStatus) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

// StageDetail renders the stage-specific counters as a short suffix for
// progress display, e.g. "(12/240)" during pdf_convert.
func (s *ProcessingStatus) StageDetail() string {
	switch s.Stage {
	case StagePDFConvert:
		if s.TotalPages > 0 {
			return fmt.Sprintf("(%d/%d)", s.CurrentPage, s.TotalPages)
		}
	case StageDetect:
		if s.TotalImages > 0 {
			return fmt.Sprintf("(%d/%d)", s.CurrentImage, s.TotalImages)
		}
	case StageOCR:
		if s.CurrentFolder != "" {
			return "(" + s.CurrentFolder + ")"
		}
	}
	return ""
}
