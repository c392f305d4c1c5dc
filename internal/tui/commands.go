package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"qbank/internal/domain"
	"qbank/internal/service"
	"qbank/internal/store"
)

// Command factories for async operations

// LoadBooksCmd loads the book list
func LoadBooksCmd(svc *service.LibraryService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		books, err := svc.Books(ctx)
		if err != nil {
			return wrapErr(err, "loading books")
		}
		return BooksLoadedMsg{Books: books}
	}
}

// LoadFoldersCmd loads the active book's folders
func LoadFoldersCmd(svc *service.LibraryService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		book := svc.ActiveBook()
		folders, err := svc.Folders(ctx)
		if err != nil {
			return wrapErr(err, "loading folders")
		}
		return FoldersLoadedMsg{Folders: folders, Book: book}
	}
}

// LoadImagesCmd selects a folder and loads its images. A superseded load
// produces an informational message rather than an error; the winning
// load delivers the images.
func LoadImagesCmd(svc *service.LibraryService, folder string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		images, err := svc.LoadImages(ctx, folder)
		if err != nil {
			if errors.Is(err, domain.ErrSuperseded) {
				return ImagesSupersededMsg{Folder: folder}
			}
			return wrapErr(err, "loading folder images")
		}
		return ImagesLoadedMsg{Images: images, Folder: folder}
	}
}

// LoadQuestionsCmd loads the active book's question records
func LoadQuestionsCmd(svc *service.LibraryService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		questions, err := svc.Questions(ctx)
		if err != nil {
			return wrapErr(err, "loading questions")
		}
		return QuestionsLoadedMsg{Questions: questions}
	}
}

// SaveQuestionCmd creates or updates a record depending on isNew
func SaveQuestionCmd(svc *service.QuestionService, q domain.Question, isNew bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var saved *domain.Question
		var err error
		if isNew {
			saved, err = svc.Create(ctx, q)
		} else {
			saved, err = svc.Update(ctx, q.Index, q)
		}
		if err != nil {
			return wrapErr(err, "saving question")
		}
		return QuestionSavedMsg{Question: *saved, Created: isNew}
	}
}

// DeleteQuestionCmd removes a record by index
func DeleteQuestionCmd(svc *service.QuestionService, index int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, index); err != nil {
			return wrapErr(err, "deleting question")
		}
		return QuestionDeletedMsg{Index: index}
	}
}

// LoadRawJSONCmd fetches the raw question file
func LoadRawJSONCmd(svc *service.QuestionService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		content, err := svc.RawJSON(ctx)
		if err != nil {
			return wrapErr(err, "loading raw JSON")
		}
		return RawJSONLoadedMsg{Content: content}
	}
}

// SaveRawJSONCmd validates and writes the raw question file
func SaveRawJSONCmd(svc *service.QuestionService, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.SaveRawJSON(ctx, content); err != nil {
			return wrapErr(err, "saving raw JSON")
		}
		return RawJSONSavedMsg{}
	}
}

// LoadFolderTextCmd fetches a folder's OCR text
func LoadFolderTextCmd(svc *service.QuestionService, folder string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		content, err := svc.FolderText(ctx, folder)
		if err != nil {
			return wrapErr(err, "loading page text")
		}
		return FolderTextLoadedMsg{Folder: folder, Content: content}
	}
}

// SaveFolderTextCmd writes a folder's corrected text
func SaveFolderTextCmd(svc *service.QuestionService, folder, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.SaveFolderText(ctx, folder, content); err != nil {
			return wrapErr(err, "saving page text")
		}
		return FolderTextSavedMsg{Folder: folder}
	}
}

// SaveDraftCmd stores an in-progress question locally
func SaveDraftCmd(st *store.BankStore, q domain.Question) tea.Cmd {
	return func() tea.Msg {
		if st == nil {
			return StatusMsg{Message: "drafts unavailable without a cache dir", IsError: true}
		}
		d, err := st.SaveDraft(store.Draft{Question: q})
		if err != nil {
			return wrapErr(err, "saving draft")
		}
		return DraftSavedMsg{ID: d.ID}
	}
}

// LoadDraftsCmd loads locally saved drafts
func LoadDraftsCmd(st *store.BankStore) tea.Cmd {
	return func() tea.Msg {
		if st == nil {
			return DraftsLoadedMsg{}
		}
		drafts, err := st.Drafts()
		if err != nil {
			return wrapErr(err, "loading drafts")
		}
		return DraftsLoadedMsg{Drafts: drafts}
	}
}

// ListenProcessingCmd reads the next job snapshot for the tracked upload.
// The app schedules the first listen after UploadStartedMsg and then
// follows the NextCmd continuations.
func ListenProcessingCmd(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		if progress, isProgress := msg.(ProcessingProgressMsg); isProgress {
			progress.NextCmd = ListenProcessingCmd(ch)
			return progress
		}
		return msg
	}
}

// UploadWithListenerCmd submits a PDF and starts tracking its ingestion
// job. Progress flows back through a channel pumped by continuation
// commands so snapshots reach the UI in order; the returned batch emits
// the upload-started message and the first listen in parallel.
func UploadWithListenerCmd(svc *service.UploadService, pdfPath, bookName, mode string) tea.Cmd {
	ch := make(chan tea.Msg, 32)

	cb := service.PollerCallbacks{
		OnProgress: func(status domain.ProcessingStatus) {
			select {
			case ch <- ProcessingProgressMsg{Status: status}:
			default:
				// UI is behind; drop this snapshot, the next tick
				// carries fresher data anyway.
			}
		},
		OnCompleted: func(status domain.ProcessingStatus) {
			ch <- ProcessingDoneMsg{Status: status}
			close(ch)
		},
		OnFailed: func(status domain.ProcessingStatus) {
			ch <- ProcessingFailedMsg{Status: status}
			close(ch)
		},
	}

	submit := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		statusID, err := svc.Submit(ctx, pdfPath, bookName, mode, cb)
		if err != nil {
			close(ch)
			return wrapErr(err, "uploading PDF")
		}
		return UploadStartedMsg{StatusID: statusID, BookName: bookName}
	}

	return tea.Batch(submit, ListenProcessingCmd(ch))
}

// LogoutCmd ends the session and clears local credentials
func LogoutCmd(svc *service.SessionService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return LogoutCompleteMsg{Error: svc.Logout(ctx)}
	}
}

// WatchSessionCmd starts periodic token re-verification and reports when
// the token goes invalid.
func WatchSessionCmd(svc *service.SessionService, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		invalid := make(chan struct{}, 1)
		svc.StartAutoVerify(interval, func() {
			invalid <- struct{}{}
		})
		<-invalid
		return AuthInvalidMsg{}
	}
}

// ClearStatusCmd clears the status bar after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// wrapErr maps auth failures to the dedicated message so the app can
// drop to the login screen instead of showing a generic error.
func wrapErr(err error, context string) tea.Msg {
	if errors.Is(err, domain.ErrAuthRequired) {
		return AuthInvalidMsg{}
	}
	return ErrMsg{Err: err, Context: context}
}
