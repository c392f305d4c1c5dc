package tui

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"qbank/internal/domain"
	"qbank/internal/search"
	"qbank/internal/service"
	"qbank/internal/store"
	"qbank/internal/tui/components"
)

// viewState identifies which screen owns the keyboard.
type viewState int

const (
	stateBrowse viewState = iota
	stateQuestions
	stateForm
	stateRawEditor
	stateTextEditor
	stateUpload
	stateConfirmDelete
	stateHelp
	stateAuthRequired
)

// focusPane identifies which browse pane has focus.
type focusPane int

const (
	paneSidebar focusPane = iota
	paneGrid
)

// Services bundles everything the TUI needs.
type Services struct {
	Session   *service.SessionService
	Library   *service.LibraryService
	Questions *service.QuestionService
	Upload    *service.UploadService
	Search    *search.Service
	Store     *store.BankStore
	Logger    *slog.Logger

	// ImageURL resolves a grid image to the URL the server serves it at.
	ImageURL func(book string, ref domain.ImageRef) string
}

// Model is the root bubbletea model.
type Model struct {
	svc Services

	state     viewState
	prevState viewState
	pane      focusPane

	sidebar      *components.Sidebar
	grid         *components.ImageGrid
	questionList *components.QuestionList
	form         *components.QuestionForm
	rawEditor    *components.TextEditor
	textEditor   *components.TextEditor
	uploadModal  *components.UploadModal

	// One selection backs the new-question flow, another the edit flow.
	newSelection  *domain.Selection
	editSelection *domain.Selection

	editingFolder string // folder whose text is open in the text editor

	width  int
	height int

	drafts          []store.Draft
	restoredDraftID string // draft backing the open form, deleted on save

	statusText  string
	statusError bool

	deleteTarget int // question index pending delete confirmation
	quitting     bool
}

// NewModel creates the root model.
func NewModel(svc Services) *Model {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}

	newSelection := domain.NewSelection()

	return &Model{
		svc:           svc,
		state:         stateBrowse,
		pane:          paneSidebar,
		sidebar:       components.NewSidebar(),
		grid:          components.NewImageGrid(newSelection),
		questionList:  components.NewQuestionList(svc.Search),
		form:          components.NewQuestionForm(newSelection),
		rawEditor:     components.NewTextEditor("Raw Question File"),
		textEditor:    components.NewTextEditor("Page Text"),
		uploadModal:   components.NewUploadModal(),
		newSelection:  newSelection,
		deleteTarget:  -1,
	}
}

// Init loads the initial data and starts the session watchdog.
func (m *Model) Init() tea.Cmd {
	m.sidebar.SetFocused(true)
	return tea.Batch(
		LoadBooksCmd(m.svc.Library),
		LoadFoldersCmd(m.svc.Library),
		LoadQuestionsCmd(m.svc.Library),
		LoadDraftsCmd(m.svc.Store),
		WatchSessionCmd(m.svc.Session, service.DefaultVerifyInterval),
	)
}

// Update is the central message dispatcher.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AuthInvalidMsg:
		m.state = stateAuthRequired
		m.svc.Upload.Poller().Stop()
		return m, nil

	case ErrMsg:
		m.setStatus(msg.Error(), true)
		m.svc.Logger.Error("ui error", "context", msg.Context, "error", msg.Err)
		return m, ClearStatusCmd(5 * time.Second)

	case BooksLoadedMsg:
		m.sidebar.SetBooks(msg.Books)
		return m, nil

	case FoldersLoadedMsg:
		m.sidebar.SetFolders(msg.Folders, msg.Book)
		return m, nil

	case ImagesLoadedMsg:
		m.grid.SetImages(msg.Images)
		return m, nil

	case ImagesSupersededMsg:
		// The winning load's ImagesLoadedMsg already updated the grid.
		return m, nil

	case QuestionsLoadedMsg:
		m.questionList.SetQuestions(msg.Questions)
		return m, nil

	case QuestionSavedMsg:
		if msg.Created {
			m.setStatus("Question created", false)
			m.newSelection.Clear()
		} else {
			m.setStatus("Question saved", false)
		}
		if m.state == stateForm {
			m.state = m.prevState
		}
		cmds := []tea.Cmd{LoadQuestionsCmd(m.svc.Library), ClearStatusCmd(3 * time.Second)}
		if msg.Created && m.restoredDraftID != "" && m.svc.Store != nil {
			m.svc.Store.DeleteDraft(m.restoredDraftID)
			m.restoredDraftID = ""
			cmds = append(cmds, LoadDraftsCmd(m.svc.Store))
		}
		return m, tea.Batch(cmds...)

	case QuestionDeletedMsg:
		m.setStatus("Question deleted", false)
		return m, tea.Batch(LoadQuestionsCmd(m.svc.Library), ClearStatusCmd(3*time.Second))

	case RawJSONLoadedMsg:
		m.rawEditor.SetContent(msg.Content)
		m.rawEditor.Focus()
		m.state = stateRawEditor
		return m, nil

	case RawJSONSavedMsg:
		m.rawEditor.MarkSaved()
		m.setStatus("Question file saved", false)
		return m, tea.Batch(LoadQuestionsCmd(m.svc.Library), ClearStatusCmd(3*time.Second))

	case FolderTextLoadedMsg:
		m.textEditor.SetTitle("Page Text: " + msg.Folder)
		m.textEditor.SetContent(msg.Content)
		m.textEditor.Focus()
		m.editingFolder = msg.Folder
		m.state = stateTextEditor
		return m, nil

	case FolderTextSavedMsg:
		m.textEditor.MarkSaved()
		m.setStatus("Page text saved", false)
		return m, ClearStatusCmd(3 * time.Second)

	case UploadStartedMsg:
		m.uploadModal.MarkProcessing(msg.StatusID)
		return m, m.uploadModal.SpinnerTick()

	case ProcessingProgressMsg:
		m.uploadModal.SetProgress(msg.Status)
		if next, ok := msg.NextCmd.(tea.Cmd); ok && next != nil {
			return m, next
		}
		return m, nil

	case ProcessingDoneMsg:
		m.uploadModal.MarkDone(msg.Status)
		m.setStatus("Book ingested: "+msg.Status.BookName, false)
		return m, tea.Batch(
			LoadBooksCmd(m.svc.Library),
			LoadFoldersCmd(m.svc.Library),
			LoadQuestionsCmd(m.svc.Library),
			ClearStatusCmd(5*time.Second),
		)

	case ProcessingFailedMsg:
		reason := msg.Status.Message
		if reason == "" {
			reason = "processing failed"
		}
		m.uploadModal.MarkFailed(reason)
		return m, nil

	case DraftSavedMsg:
		m.restoredDraftID = msg.ID
		m.setStatus("Draft saved", false)
		return m, tea.Batch(LoadDraftsCmd(m.svc.Store), ClearStatusCmd(3*time.Second))

	case DraftsLoadedMsg:
		m.drafts = msg.Drafts
		return m, nil

	case LogoutCompleteMsg:
		m.quitting = true
		return m, tea.Quit

	case StatusMsg:
		m.setStatus(msg.Message, msg.IsError)
		return m, ClearStatusCmd(5 * time.Second)

	case ClearStatusMsg:
		m.statusText = ""
		m.statusError = false
		return m, nil
	}

	// Spinner ticks and other component messages.
	if m.state == stateUpload {
		return m, m.uploadModal.Update(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	sidebarWidth := width / 4
	if sidebarWidth < 24 {
		sidebarWidth = 24
	}
	contentWidth := width - sidebarWidth - 4
	contentHeight := height - 3 // status bar and padding

	m.sidebar.SetSize(sidebarWidth, contentHeight)
	m.grid.SetSize(contentWidth, contentHeight)
	m.questionList.SetSize(width-4, contentHeight)
	m.form.SetSize(width-8, contentHeight)
	m.rawEditor.SetSize(width-4, contentHeight)
	m.textEditor.SetSize(width-4, contentHeight)
	m.uploadModal.SetSize(width / 2)
}

func (m *Model) setStatus(text string, isError bool) {
	m.statusText = text
	m.statusError = isError
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works from everywhere.
	if key.Matches(msg, Keys.Quit) {
		m.quitting = true
		m.svc.Upload.Poller().Stop()
		m.svc.Session.StopAutoVerify()
		return m, tea.Quit
	}

	switch m.state {
	case stateBrowse:
		return m.handleBrowseKey(msg)
	case stateQuestions:
		return m.handleQuestionsKey(msg)
	case stateForm:
		return m.handleFormKey(msg)
	case stateRawEditor:
		return m.handleRawEditorKey(msg)
	case stateTextEditor:
		return m.handleTextEditorKey(msg)
	case stateUpload:
		return m.handleUploadKey(msg)
	case stateConfirmDelete:
		return m.handleConfirmKey(msg)
	case stateHelp:
		if key.Matches(msg, Keys.Escape) || key.Matches(msg, Keys.Help) {
			m.state = m.prevState
		}
		return m, nil
	case stateAuthRequired:
		return m, nil
	}
	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Tab):
		if m.pane == paneSidebar {
			m.pane = paneGrid
		} else {
			m.pane = paneSidebar
		}
		m.sidebar.SetFocused(m.pane == paneSidebar)
		m.grid.SetFocused(m.pane == paneGrid)
		return m, nil

	case key.Matches(msg, Keys.Help):
		m.prevState = m.state
		m.state = stateHelp
		return m, nil

	case key.Matches(msg, Keys.Questions):
		m.state = stateQuestions
		m.questionList.SetFocused(true)
		return m, LoadQuestionsCmd(m.svc.Library)

	case key.Matches(msg, Keys.RawEditor):
		return m, LoadRawJSONCmd(m.svc.Questions)

	case key.Matches(msg, Keys.PageText):
		folder := m.svc.Library.ActiveFolder()
		if folder == "" {
			m.setStatus("Select a page folder first", true)
			return m, ClearStatusCmd(3 * time.Second)
		}
		return m, LoadFolderTextCmd(m.svc.Questions, folder)

	case key.Matches(msg, Keys.Upload):
		m.uploadModal.Reset()
		m.state = stateUpload
		return m, nil

	case key.Matches(msg, Keys.NewRecord):
		m.form.Reset()
		m.restoredDraftID = ""
		if len(m.drafts) > 0 {
			draft := m.drafts[0]
			m.newSelection = domain.SelectionFrom(draft.Question.QuestionImages, draft.Question.AnswerImages)
			m.form.LoadDraft(draft.Question)
			m.restoredDraftID = draft.ID
			m.setStatus("Draft restored", false)
		}
		m.form.SetSelection(m.newSelection)
		m.grid.SetSelection(m.newSelection)
		m.prevState = m.state
		m.state = stateForm
		if m.restoredDraftID != "" {
			return m, ClearStatusCmd(3 * time.Second)
		}
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		return m, tea.Batch(
			LoadBooksCmd(m.svc.Library),
			LoadFoldersCmd(m.svc.Library),
			LoadImagesCmd(m.svc.Library, m.svc.Library.ActiveFolder()),
		)

	case key.Matches(msg, Keys.Logout):
		return m, LogoutCmd(m.svc.Session)
	}

	if m.pane == paneSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleGridKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.sidebar.Home()
	case key.Matches(msg, Keys.End):
		m.sidebar.End()
	case key.Matches(msg, Keys.Books), key.Matches(msg, Keys.Left), key.Matches(msg, Keys.Right):
		m.sidebar.SwitchSection()
	case key.Matches(msg, Keys.Enter):
		selected := m.sidebar.Selected()
		if selected == "" {
			return m, nil
		}
		if m.sidebar.Section() == components.SectionBooks {
			if m.svc.Library.SetBook(selected) {
				m.grid.SetImages(nil)
				m.newSelection.Clear()
				return m, tea.Batch(
					LoadFoldersCmd(m.svc.Library),
					LoadQuestionsCmd(m.svc.Library),
				)
			}
			return m, nil
		}
		return m, LoadImagesCmd(m.svc.Library, selected)
	}
	return m, nil
}

func (m *Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.grid.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.grid.MoveDown()
	case key.Matches(msg, Keys.Left):
		m.grid.MoveLeft()
	case key.Matches(msg, Keys.Right):
		m.grid.MoveRight()
	case key.Matches(msg, Keys.Home):
		m.grid.Home()
	case key.Matches(msg, Keys.End):
		m.grid.End()
	case key.Matches(msg, Keys.Toggle):
		if ref := m.grid.ToggleSelected(); ref != "" {
			q, a := m.activeSelection().Count()
			m.setStatus(selectionSummary(m.activeSelection().Mode(), q, a), false)
			return m, ClearStatusCmd(3 * time.Second)
		}
	case key.Matches(msg, Keys.ModeSwitch):
		sel := m.activeSelection()
		if sel.Mode() == domain.ModeQuestion {
			sel.SetMode(domain.ModeAnswer)
		} else {
			sel.SetMode(domain.ModeQuestion)
		}
		m.setStatus("Tagging mode: "+string(sel.Mode()), false)
		return m, ClearStatusCmd(3 * time.Second)
	case key.Matches(msg, Keys.ClearTags):
		m.activeSelection().Clear()
		m.setStatus("Tags cleared", false)
		return m, ClearStatusCmd(3 * time.Second)
	case key.Matches(msg, Keys.Enter):
		ref := m.grid.Selected()
		if ref == "" || m.svc.ImageURL == nil {
			return m, nil
		}
		m.setStatus(m.svc.ImageURL(m.svc.Library.ActiveBook(), ref), false)
		return m, ClearStatusCmd(5 * time.Second)
	}
	return m, nil
}

// activeSelection is the selection the grid currently mutates: the edit
// selection while an existing record is being edited, otherwise the
// new-question selection.
func (m *Model) activeSelection() *domain.Selection {
	if m.editSelection != nil {
		return m.editSelection
	}
	return m.newSelection
}

func (m *Model) handleQuestionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.questionList.Filtering() {
		switch {
		case key.Matches(msg, Keys.Escape):
			m.questionList.ClearFilter()
			return m, nil
		case key.Matches(msg, Keys.Enter):
			m.questionList.StopFilter()
			return m, nil
		default:
			input := m.questionList.FilterInput()
			updated, cmd := input.Update(msg)
			*input = updated
			m.questionList.Refilter()
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, Keys.Escape):
		m.state = stateBrowse
		m.questionList.SetFocused(false)
		m.editSelection = nil
		m.grid.SetSelection(m.newSelection)
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.questionList.StartFilter()
		return m, nil

	case key.Matches(msg, Keys.Up):
		m.questionList.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.questionList.MoveDown()
	case key.Matches(msg, Keys.HalfUp):
		m.questionList.HalfPageUp()
	case key.Matches(msg, Keys.HalfDown):
		m.questionList.HalfPageDown()
	case key.Matches(msg, Keys.Home):
		m.questionList.Home()
	case key.Matches(msg, Keys.End):
		m.questionList.End()

	case key.Matches(msg, Keys.Refresh):
		return m, LoadQuestionsCmd(m.svc.Library)

	case key.Matches(msg, Keys.Edit), key.Matches(msg, Keys.Enter):
		q, ok := m.questionList.Selected()
		if !ok {
			return m, nil
		}
		m.editSelection = domain.SelectionFrom(q.QuestionImages, q.AnswerImages)
		m.form.Reset()
		m.form.SetSelection(m.editSelection)
		m.form.LoadQuestion(q)
		m.grid.SetSelection(m.editSelection)
		m.prevState = m.state
		m.state = stateForm
		return m, nil

	case key.Matches(msg, Keys.Delete):
		q, ok := m.questionList.Selected()
		if !ok {
			return m, nil
		}
		m.deleteTarget = q.Index
		m.state = stateConfirmDelete
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.state = m.prevState
		m.editSelection = nil
		m.form.SetSelection(m.newSelection)
		m.grid.SetSelection(m.newSelection)
		return m, nil

	case msg.String() == "ctrl+s":
		if err := m.form.Validate(); err != nil {
			m.setStatus(err.Error(), true)
			return m, ClearStatusCmd(3 * time.Second)
		}
		q := m.form.Question()
		_, editing := m.form.Editing()
		return m, SaveQuestionCmd(m.svc.Questions, q, !editing)

	case msg.String() == "ctrl+d":
		return m, SaveDraftCmd(m.svc.Store, m.form.Question())

	case msg.String() == "tab":
		m.form.NextField()
		return m, nil

	case msg.String() == "shift+tab":
		m.form.PrevField()
		return m, nil
	}

	if m.form.OnDifficulty() {
		if key.Matches(msg, Keys.Enter) || msg.String() == " " {
			m.form.CycleDifficulty()
			return m, nil
		}
	}

	return m, m.form.Update(msg)
}

func (m *Model) handleRawEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.rawEditor.Blur()
		m.state = stateBrowse
		return m, nil
	case msg.String() == "ctrl+s":
		return m, SaveRawJSONCmd(m.svc.Questions, m.rawEditor.Content())
	}
	return m, m.rawEditor.Update(msg)
}

func (m *Model) handleTextEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.textEditor.Blur()
		m.state = stateBrowse
		return m, nil
	case msg.String() == "ctrl+s":
		return m, SaveFolderTextCmd(m.svc.Questions, m.editingFolder, m.textEditor.Content())
	}
	return m, m.textEditor.Update(msg)
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.uploadModal.Phase() {
	case components.UploadEditing:
		switch {
		case key.Matches(msg, Keys.Escape):
			m.state = stateBrowse
			return m, nil
		case msg.String() == "tab":
			m.uploadModal.NextField()
			return m, nil
		case key.Matches(msg, Keys.Enter):
			if m.uploadModal.OnModeField() {
				m.uploadModal.CycleMode()
				return m, nil
			}
			if err := m.uploadModal.Validate(); err != nil {
				m.setStatus(err.Error(), true)
				return m, ClearStatusCmd(3 * time.Second)
			}
			pdfPath, bookName, mode := m.uploadModal.Values()
			m.uploadModal.MarkSending()
			return m, tea.Batch(
				UploadWithListenerCmd(m.svc.Upload, pdfPath, bookName, mode),
				m.uploadModal.SpinnerTick(),
			)
		}
		return m, m.uploadModal.Update(msg)

	case components.UploadSending, components.UploadProcessing:
		if key.Matches(msg, Keys.Escape) {
			m.svc.Upload.Cancel()
			m.state = stateBrowse
			m.setStatus("Upload cancelled", false)
			return m, ClearStatusCmd(3 * time.Second)
		}
		return m, nil

	default: // done or error
		if key.Matches(msg, Keys.Escape) || key.Matches(msg, Keys.Enter) {
			m.state = stateBrowse
		}
		return m, nil
	}
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		index := m.deleteTarget
		m.deleteTarget = -1
		m.state = stateQuestions
		return m, DeleteQuestionCmd(m.svc.Questions, index)
	case key.Matches(msg, Keys.Deny):
		m.deleteTarget = -1
		m.state = stateQuestions
		return m, nil
	}
	return m, nil
}

func selectionSummary(mode domain.SelectionMode, qCount, aCount int) string {
	return "Mode " + string(mode) + ": " +
		pluralize(qCount, "question image") + ", " +
		pluralize(aCount, "answer image")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
