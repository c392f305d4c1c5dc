package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"qbank/internal/domain"
	"qbank/internal/tui/styles"
)

// Form fields in focus order.
const (
	fieldText = iota
	fieldAnswer
	fieldDifficulty
	fieldChapter
	fieldSubject
	fieldLesson
	fieldCount
)

var difficulties = []string{
	domain.DifficultyEasy,
	domain.DifficultyMedium,
	domain.DifficultyHard,
}

// QuestionForm edits one question record. The image lists come from the
// bound Selection, which the grid mutates while the form is open.
type QuestionForm struct {
	text   textarea.Model
	answer textarea.Model
	inputs []textinput.Model // chapter, subject, lesson

	difficulty int
	focus      int

	selection *domain.Selection
	editIndex int // -1 for a new record

	width  int
	height int
}

// NewQuestionForm creates a form for a new record bound to selection.
func NewQuestionForm(selection *domain.Selection) *QuestionForm {
	text := textarea.New()
	text.Placeholder = "Question text"
	text.SetHeight(4)
	text.Focus()

	answer := textarea.New()
	answer.Placeholder = "Answer text"
	answer.SetHeight(4)

	labels := []string{"Chapter", "Subject", "Lesson"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		input := textinput.New()
		input.Placeholder = label
		input.CharLimit = 80
		inputs[i] = input
	}

	return &QuestionForm{
		text:      text,
		answer:    answer,
		inputs:    inputs,
		selection: selection,
		editIndex: -1,
	}
}

// LoadQuestion fills the form from an existing record for editing.
func (f *QuestionForm) LoadQuestion(q domain.Question) {
	f.text.SetValue(q.Text)
	f.answer.SetValue(q.Answer)
	f.inputs[0].SetValue(q.Chapter)
	f.inputs[1].SetValue(q.Subject)
	f.inputs[2].SetValue(q.Lesson)

	f.difficulty = 0
	for i, d := range difficulties {
		if d == q.Difficulty {
			f.difficulty = i
			break
		}
	}
	f.editIndex = q.Index
}

// LoadDraft fills the form from a saved draft. The result is still a
// new record; drafts never carry a server-assigned index.
func (f *QuestionForm) LoadDraft(q domain.Question) {
	f.LoadQuestion(q)
	f.editIndex = -1
}

// Reset clears the form for a new record.
func (f *QuestionForm) Reset() {
	f.text.SetValue("")
	f.answer.SetValue("")
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.difficulty = 0
	f.editIndex = -1
	f.setFocus(fieldText)
}

// Editing reports whether the form targets an existing record and which.
func (f *QuestionForm) Editing() (int, bool) {
	return f.editIndex, f.editIndex >= 0
}

// SetSelection rebinds the form to another selection.
func (f *QuestionForm) SetSelection(selection *domain.Selection) {
	f.selection = selection
}

// SetSize sets the rendered dimensions.
func (f *QuestionForm) SetSize(width, height int) {
	f.width = width
	f.height = height
	f.text.SetWidth(width - 4)
	f.answer.SetWidth(width - 4)
	for i := range f.inputs {
		f.inputs[i].Width = width - 16
	}
}

// NextField advances focus, wrapping after the last field.
func (f *QuestionForm) NextField() {
	f.setFocus((f.focus + 1) % fieldCount)
}

// PrevField moves focus back one field.
func (f *QuestionForm) PrevField() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f *QuestionForm) setFocus(field int) {
	f.focus = field
	f.text.Blur()
	f.answer.Blur()
	for i := range f.inputs {
		f.inputs[i].Blur()
	}

	switch field {
	case fieldText:
		f.text.Focus()
	case fieldAnswer:
		f.answer.Focus()
	case fieldChapter:
		f.inputs[0].Focus()
	case fieldSubject:
		f.inputs[1].Focus()
	case fieldLesson:
		f.inputs[2].Focus()
	}
}

// OnDifficulty reports whether the difficulty selector has focus.
func (f *QuestionForm) OnDifficulty() bool {
	return f.focus == fieldDifficulty
}

// CycleDifficulty advances the difficulty selector.
func (f *QuestionForm) CycleDifficulty() {
	f.difficulty = (f.difficulty + 1) % len(difficulties)
}

// Update routes a message to the focused field.
func (f *QuestionForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldText:
		f.text, cmd = f.text.Update(msg)
	case fieldAnswer:
		f.answer, cmd = f.answer.Update(msg)
	case fieldChapter:
		f.inputs[0], cmd = f.inputs[0].Update(msg)
	case fieldSubject:
		f.inputs[1], cmd = f.inputs[1].Update(msg)
	case fieldLesson:
		f.inputs[2], cmd = f.inputs[2].Update(msg)
	}
	return cmd
}

// Question builds the record from the form and the bound selection.
func (f *QuestionForm) Question() domain.Question {
	questionImages, answerImages := f.selection.Snapshot()

	q := domain.Question{
		Text:           strings.TrimSpace(f.text.Value()),
		Answer:         strings.TrimSpace(f.answer.Value()),
		QuestionImages: questionImages,
		AnswerImages:   answerImages,
		Difficulty:     difficulties[f.difficulty],
		Chapter:        strings.TrimSpace(f.inputs[0].Value()),
		Subject:        strings.TrimSpace(f.inputs[1].Value()),
		Lesson:         strings.TrimSpace(f.inputs[2].Value()),
	}
	if f.editIndex >= 0 {
		q.Index = f.editIndex
	}
	return q
}

// Validate reports whether the form can be submitted.
func (f *QuestionForm) Validate() error {
	if strings.TrimSpace(f.text.Value()) == "" {
		return fmt.Errorf("question text is required")
	}
	return nil
}

// View renders the form.
func (f *QuestionForm) View() string {
	var b strings.Builder

	title := "New Question"
	if f.editIndex >= 0 {
		title = fmt.Sprintf("Edit Question #%d", f.editIndex)
	}
	b.WriteString(styles.ModalTitleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(f.renderLabel("Question", fieldText))
	b.WriteString("\n")
	b.WriteString(f.text.View())
	b.WriteString("\n\n")

	b.WriteString(f.renderLabel("Answer", fieldAnswer))
	b.WriteString("\n")
	b.WriteString(f.answer.View())
	b.WriteString("\n\n")

	b.WriteString(f.renderLabel("Difficulty", fieldDifficulty))
	b.WriteString(" ")
	for i, d := range difficulties {
		if i == f.difficulty {
			b.WriteString(styles.AccentStyle.Render("[" + d + "]"))
		} else {
			b.WriteString(styles.DimStyle.Render(" " + d + " "))
		}
	}
	b.WriteString("\n\n")

	labels := []string{"Chapter", "Subject", "Lesson"}
	fields := []int{fieldChapter, fieldSubject, fieldLesson}
	for i, label := range labels {
		b.WriteString(f.renderLabel(label, fields[i]))
		b.WriteString(" ")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	qCount, aCount := f.selection.Count()
	b.WriteString(styles.SubtitleStyle.Render(
		fmt.Sprintf("Tagged images: %d question, %d answer", qCount, aCount)))
	if conflicts := f.selection.Conflicts(); len(conflicts) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarnStyle.Render(
			fmt.Sprintf("%d image(s) tagged as both question and answer", len(conflicts))))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("tab: next field · ctrl+s: save · esc: cancel"))

	return b.String()
}

func (f *QuestionForm) renderLabel(label string, field int) string {
	if f.focus == field {
		return styles.AccentStyle.Bold(true).Render(label + ":")
	}
	return styles.SubtitleStyle.Render(label + ":")
}
