package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"qbank/internal/bankapi"
	"qbank/internal/domain"
	"qbank/internal/tui/styles"
)

// UploadPhase tracks where the upload flow is.
type UploadPhase int

const (
	UploadEditing UploadPhase = iota
	UploadSending
	UploadProcessing
	UploadDone
	UploadError
)

// Upload modal fields in focus order.
const (
	uploadFieldPath = iota
	uploadFieldName
	uploadFieldMode
	uploadFieldCount
)

// UploadModal collects a PDF path, a book name and a processing mode,
// then renders live job progress while ingestion runs.
type UploadModal struct {
	path textinput.Model
	name textinput.Model
	mode string

	focus   int
	phase   UploadPhase
	spin    spinner.Model
	status  domain.ProcessingStatus
	failure string

	width int
}

// NewUploadModal creates the modal in its editing phase.
func NewUploadModal() *UploadModal {
	path := textinput.New()
	path.Placeholder = "/path/to/book.pdf"
	path.CharLimit = 512
	path.Focus()

	name := textinput.New()
	name.Placeholder = "book name (letters, digits, _ and -)"
	name.CharLimit = 64

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.SpinnerStyle

	return &UploadModal{
		path: path,
		name: name,
		mode: bankapi.ModeComplete,
		spin: spin,
	}
}

// Reset returns the modal to a blank editing state.
func (m *UploadModal) Reset() {
	m.path.SetValue("")
	m.name.SetValue("")
	m.mode = bankapi.ModeComplete
	m.focus = uploadFieldPath
	m.phase = UploadEditing
	m.status = domain.ProcessingStatus{}
	m.failure = ""
	m.path.Focus()
	m.name.Blur()
}

// SetSize sets the rendered width.
func (m *UploadModal) SetSize(width int) {
	m.width = width
	inner := width - 8
	if inner < 20 {
		inner = 20
	}
	m.path.Width = inner
	m.name.Width = inner
}

// Phase returns the current phase.
func (m *UploadModal) Phase() UploadPhase {
	return m.phase
}

// Values returns the submitted path, book name and mode.
func (m *UploadModal) Values() (pdfPath, bookName, mode string) {
	return strings.TrimSpace(m.path.Value()), strings.TrimSpace(m.name.Value()), m.mode
}

// Validate runs the client-side upload checks.
func (m *UploadModal) Validate() error {
	pdfPath, bookName, _ := m.Values()
	return bankapi.ValidateUpload(pdfPath, bookName)
}

// MarkSending flips to the sending phase.
func (m *UploadModal) MarkSending() {
	m.phase = UploadSending
}

// MarkProcessing flips to the processing phase once the job is accepted.
func (m *UploadModal) MarkProcessing(statusID string) {
	m.phase = UploadProcessing
	m.status = domain.ProcessingStatus{StatusID: statusID, Status: domain.StatusPending}
}

// SetProgress applies a job snapshot.
func (m *UploadModal) SetProgress(status domain.ProcessingStatus) {
	m.status = status
}

// MarkDone flips to the done phase with the final snapshot.
func (m *UploadModal) MarkDone(status domain.ProcessingStatus) {
	m.phase = UploadDone
	m.status = status
}

// MarkFailed flips to the error phase.
func (m *UploadModal) MarkFailed(message string) {
	m.phase = UploadError
	m.failure = message
}

// NextField advances focus between the inputs.
func (m *UploadModal) NextField() {
	m.focus = (m.focus + 1) % uploadFieldCount
	m.path.Blur()
	m.name.Blur()
	switch m.focus {
	case uploadFieldPath:
		m.path.Focus()
	case uploadFieldName:
		m.name.Focus()
	}
}

// OnModeField reports whether the mode selector has focus.
func (m *UploadModal) OnModeField() bool {
	return m.focus == uploadFieldMode
}

// CycleMode flips between complete and step-by-step processing.
func (m *UploadModal) CycleMode() {
	if m.mode == bankapi.ModeComplete {
		m.mode = bankapi.ModeStepByStep
	} else {
		m.mode = bankapi.ModeComplete
	}
}

// Update routes messages to the focused input and the spinner.
func (m *UploadModal) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.phase == UploadSending || m.phase == UploadProcessing {
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.phase == UploadEditing {
		switch m.focus {
		case uploadFieldPath:
			m.path, cmd = m.path.Update(msg)
			cmds = append(cmds, cmd)
		case uploadFieldName:
			m.name, cmd = m.name.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return tea.Batch(cmds...)
}

// SpinnerTick returns the spinner's tick command for animation.
func (m *UploadModal) SpinnerTick() tea.Cmd {
	return m.spin.Tick
}

// View renders the modal.
func (m *UploadModal) View() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Upload PDF"))
	b.WriteString("\n")

	switch m.phase {
	case UploadEditing:
		b.WriteString(m.renderForm())
	case UploadSending:
		b.WriteString(m.spin.View())
		b.WriteString(" Uploading…")
	case UploadProcessing:
		b.WriteString(m.renderProgress())
	case UploadDone:
		b.WriteString(styles.SuccessStyle.Render("✓ Processing complete"))
		if m.status.BookName != "" {
			b.WriteString("\n")
			b.WriteString(styles.SubtitleStyle.Render("Book: " + m.status.BookName))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.DimStyle.Render("esc: close"))
	case UploadError:
		b.WriteString(styles.ErrorStyle.Render("✗ " + m.failure))
		b.WriteString("\n\n")
		b.WriteString(styles.DimStyle.Render("esc: close"))
	}

	return styles.ModalStyle.Width(m.width).Render(b.String())
}

func (m *UploadModal) renderForm() string {
	var b strings.Builder

	b.WriteString(m.renderLabel("PDF file", uploadFieldPath))
	b.WriteString("\n")
	b.WriteString(m.path.View())
	b.WriteString("\n\n")

	b.WriteString(m.renderLabel("Book name", uploadFieldName))
	b.WriteString("\n")
	b.WriteString(m.name.View())
	b.WriteString("\n\n")

	b.WriteString(m.renderLabel("Mode", uploadFieldMode))
	b.WriteString(" ")
	for _, mode := range []string{bankapi.ModeComplete, bankapi.ModeStepByStep} {
		if mode == m.mode {
			b.WriteString(styles.AccentStyle.Render("[" + mode + "]"))
		} else {
			b.WriteString(styles.DimStyle.Render(" " + mode + " "))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("tab: next field · enter: upload · esc: cancel"))

	return b.String()
}

func (m *UploadModal) renderProgress() string {
	var b strings.Builder

	label := m.status.Message
	if label == "" {
		label = m.status.Status
	}
	if detail := m.status.StageDetail(); detail != "" {
		label += " " + detail
	}

	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(label)
	b.WriteString("\n\n")

	barWidth := m.width - 12
	if barWidth < 10 {
		barWidth = 10
	}
	b.WriteString(styles.RenderProgressBar(m.status.Progress, barWidth))
	b.WriteString(fmt.Sprintf(" %d%%", m.status.Progress))
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("esc: cancel and discard job"))

	return b.String()
}

func (m *UploadModal) renderLabel(label string, field int) string {
	if m.focus == field {
		return styles.AccentStyle.Bold(true).Render(label + ":")
	}
	return styles.SubtitleStyle.Render(label + ":")
}
