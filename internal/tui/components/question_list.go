package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"qbank/internal/domain"
	"qbank/internal/search"
	"qbank/internal/tui/styles"
)

// QuestionList shows the active book's records with an inline fuzzy
// filter. With a filter active it displays ranked results with matched
// characters highlighted.
type QuestionList struct {
	questions []domain.Question
	searcher  *search.Service

	filterInput textinput.Model
	filtering   bool
	results     []search.FilterResult

	cursor int
	offset int

	width   int
	height  int
	focused bool
}

// NewQuestionList creates an empty question list.
func NewQuestionList(searcher *search.Service) *QuestionList {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "filter questions"
	input.CharLimit = 120

	return &QuestionList{
		searcher:    searcher,
		filterInput: input,
	}
}

// SetSize sets the rendered dimensions.
func (l *QuestionList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.filterInput.Width = width - 4
}

// SetFocused toggles keyboard focus.
func (l *QuestionList) SetFocused(focused bool) {
	l.focused = focused
}

// SetQuestions replaces the records and re-runs any active filter.
func (l *QuestionList) SetQuestions(questions []domain.Question) {
	l.questions = questions
	l.refilter()
	l.clampCursor()
}

// StartFilter opens the filter input.
func (l *QuestionList) StartFilter() {
	l.filtering = true
	l.filterInput.Focus()
}

// StopFilter closes the filter input, keeping the query applied.
func (l *QuestionList) StopFilter() {
	l.filtering = false
	l.filterInput.Blur()
}

// ClearFilter closes the filter input and drops the query.
func (l *QuestionList) ClearFilter() {
	l.filtering = false
	l.filterInput.Blur()
	l.filterInput.SetValue("")
	l.results = nil
	l.cursor = 0
	l.offset = 0
}

// Filtering reports whether the filter input has focus.
func (l *QuestionList) Filtering() bool {
	return l.filtering
}

// FilterInput exposes the input model for Update routing.
func (l *QuestionList) FilterInput() *textinput.Model {
	return &l.filterInput
}

// Refilter re-runs the search after the filter input changed.
func (l *QuestionList) Refilter() {
	l.refilter()
	l.cursor = 0
	l.offset = 0
}

func (l *QuestionList) refilter() {
	query := l.filterInput.Value()
	if query == "" {
		l.results = nil
		return
	}
	l.results = l.searcher.Filter(query, l.questions, search.Filters{})
}

func (l *QuestionList) filtered() bool {
	return l.filterInput.Value() != ""
}

// Len returns the number of visible entries.
func (l *QuestionList) Len() int {
	if l.filtered() {
		return len(l.results)
	}
	return len(l.questions)
}

// Selected returns the record under the cursor.
func (l *QuestionList) Selected() (domain.Question, bool) {
	if l.filtered() {
		if l.cursor < 0 || l.cursor >= len(l.results) {
			return domain.Question{}, false
		}
		return l.results[l.cursor].Question, true
	}
	if l.cursor < 0 || l.cursor >= len(l.questions) {
		return domain.Question{}, false
	}
	return l.questions[l.cursor], true
}

// Movement

func (l *QuestionList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.scrollIntoView()
}

func (l *QuestionList) MoveDown() {
	if l.cursor < l.Len()-1 {
		l.cursor++
	}
	l.scrollIntoView()
}

func (l *QuestionList) HalfPageUp() {
	l.cursor -= l.visibleRows() / 2
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scrollIntoView()
}

func (l *QuestionList) HalfPageDown() {
	l.cursor += l.visibleRows() / 2
	if l.cursor >= l.Len() {
		l.cursor = l.Len() - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scrollIntoView()
}

func (l *QuestionList) Home() {
	l.cursor = 0
	l.offset = 0
}

func (l *QuestionList) End() {
	if n := l.Len(); n > 0 {
		l.cursor = n - 1
	}
	l.scrollIntoView()
}

func (l *QuestionList) clampCursor() {
	if n := l.Len(); l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scrollIntoView()
}

func (l *QuestionList) visibleRows() int {
	rows := l.height - 2 // filter line and count line
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (l *QuestionList) scrollIntoView() {
	rows := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the list.
func (l *QuestionList) View() string {
	var b strings.Builder

	if l.filtering || l.filtered() {
		b.WriteString(l.filterInput.View())
	} else {
		b.WriteString(styles.DimStyle.Render("/ to filter"))
	}
	b.WriteString("\n")

	n := l.Len()
	if n == 0 {
		if l.filtered() {
			b.WriteString(styles.DimStyle.Render("No matches"))
		} else {
			b.WriteString(styles.DimStyle.Render("No questions yet"))
		}
		return b.String()
	}

	end := l.offset + l.visibleRows()
	if end > n {
		end = n
	}

	for i := l.offset; i < end; i++ {
		b.WriteString(l.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%d/%d", l.cursor+1, n)))
	return b.String()
}

func (l *QuestionList) renderRow(i int) string {
	selected := i == l.cursor && l.focused

	var q domain.Question
	var matched []int
	if l.filtered() {
		q = l.results[i].Question
		matched = l.results[i].MatchedIndexes
	} else {
		q = l.questions[i]
	}

	qCount := len(q.QuestionImages)
	aCount := len(q.AnswerImages)
	meta := fmt.Sprintf(" [%s] %dQ/%dA", q.Difficulty, qCount, aCount)

	textWidth := l.width - len(meta) - 8
	if textWidth < 10 {
		textWidth = 10
	}

	prefix := fmt.Sprintf("%3d ", q.Index)
	text := renderHighlighted(q.Text, matched, textWidth, selected)

	row := prefix + text + styles.DimStyle.Render(meta)
	if selected {
		return styles.SelectedItemStyle.Render(row)
	}
	return styles.NormalItemStyle.Render(row)
}

// renderHighlighted truncates text and styles the matched rune positions.
func renderHighlighted(text string, matched []int, width int, selected bool) string {
	text = styles.Truncate(text, width)
	if len(matched) == 0 {
		return text
	}

	matchSet := make(map[int]bool, len(matched))
	for _, idx := range matched {
		matchSet[idx] = true
	}

	highlight := styles.MatchHighlightStyle
	if selected {
		highlight = styles.MatchHighlightSelectedStyle
	}

	var b strings.Builder
	for i, r := range []rune(text) {
		if matchSet[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
