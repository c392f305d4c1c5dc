package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"qbank/internal/tui/styles"
)

// TextEditor is a full-pane textarea used for the raw question file and
// for per-page OCR text. It tracks dirtiness so the app can warn before
// discarding edits.
type TextEditor struct {
	area     textarea.Model
	title    string
	original string

	width  int
	height int
}

// NewTextEditor creates an editor with a title shown above the content.
func NewTextEditor(title string) *TextEditor {
	area := textarea.New()
	area.CharLimit = 0
	area.ShowLineNumbers = true

	return &TextEditor{
		area:  area,
		title: title,
	}
}

// SetTitle changes the header, e.g. to carry the folder name.
func (e *TextEditor) SetTitle(title string) {
	e.title = title
}

// SetContent loads content and marks the editor clean.
func (e *TextEditor) SetContent(content string) {
	e.area.SetValue(content)
	e.original = content
}

// Content returns the current text.
func (e *TextEditor) Content() string {
	return e.area.Value()
}

// Dirty reports whether the content differs from what was loaded.
func (e *TextEditor) Dirty() bool {
	return e.area.Value() != e.original
}

// MarkSaved resets the dirty baseline to the current content.
func (e *TextEditor) MarkSaved() {
	e.original = e.area.Value()
}

// Focus gives the textarea keyboard focus.
func (e *TextEditor) Focus() {
	e.area.Focus()
}

// Blur removes keyboard focus.
func (e *TextEditor) Blur() {
	e.area.Blur()
}

// SetSize sets the rendered dimensions.
func (e *TextEditor) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.area.SetWidth(width - 2)
	e.area.SetHeight(height - 4)
}

// Update routes messages to the textarea.
func (e *TextEditor) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return cmd
}

// View renders the editor.
func (e *TextEditor) View() string {
	var b strings.Builder

	title := e.title
	if e.Dirty() {
		title += " *"
	}
	b.WriteString(styles.ModalTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(e.area.View())
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("ctrl+s: save · esc: close"))

	return b.String()
}
