package tui

import (
	"qbank/internal/domain"
	"qbank/internal/store"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// AuthInvalidMsg signals the session token stopped being accepted and the
// user must log in again.
type AuthInvalidMsg struct{}

// BooksLoadedMsg signals that the book list has been loaded
type BooksLoadedMsg struct {
	Books []string
}

// FoldersLoadedMsg signals that the active book's folders have been loaded
type FoldersLoadedMsg struct {
	Folders []string
	Book    string
}

// ImagesLoadedMsg signals that a folder's image list has been loaded
type ImagesLoadedMsg struct {
	Images []domain.ImageRef
	Folder string
}

// ImagesSupersededMsg signals that a folder load was discarded because a
// newer one replaced it. Purely informational; the newer load's message
// carries the images that matter.
type ImagesSupersededMsg struct {
	Folder string
}

// QuestionsLoadedMsg signals that the active book's questions have been loaded
type QuestionsLoadedMsg struct {
	Questions []domain.Question
}

// QuestionSavedMsg signals a successful create or update
type QuestionSavedMsg struct {
	Question domain.Question
	Created  bool
}

// QuestionDeletedMsg signals a successful delete
type QuestionDeletedMsg struct {
	Index int
}

// RawJSONLoadedMsg carries the raw question file content
type RawJSONLoadedMsg struct {
	Content string
}

// RawJSONSavedMsg signals the raw question file was written
type RawJSONSavedMsg struct{}

// FolderTextLoadedMsg carries a folder's OCR text
type FolderTextLoadedMsg struct {
	Folder  string
	Content string
}

// FolderTextSavedMsg signals a folder's text was written
type FolderTextSavedMsg struct {
	Folder string
}

// DraftsLoadedMsg carries locally saved question drafts
type DraftsLoadedMsg struct {
	Drafts []store.Draft
}

// DraftSavedMsg signals a draft was stored locally
type DraftSavedMsg struct {
	ID string
}

// UploadStartedMsg signals the PDF was accepted and a job is being tracked
type UploadStartedMsg struct {
	StatusID string
	BookName string
}

// ProcessingProgressMsg is one job snapshot while ingestion runs.
// NextCmd continues listening; it is nil on the final message.
type ProcessingProgressMsg struct {
	Status  domain.ProcessingStatus
	NextCmd interface{} // tea.Cmd continuation
}

// ProcessingDoneMsg signals the ingestion job completed
type ProcessingDoneMsg struct {
	Status domain.ProcessingStatus
}

// ProcessingFailedMsg signals the ingestion job failed
type ProcessingFailedMsg struct {
	Status domain.ProcessingStatus
}

// LogoutCompleteMsg signals logout finished
type LogoutCompleteMsg struct {
	Error error
}

// StatusMsg sets a temporary status bar message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
