package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qbank/internal/domain"
	"qbank/internal/tui/styles"
)

// SidebarSection identifies which list the sidebar cursor is in.
type SidebarSection int

const (
	SectionBooks SidebarSection = iota
	SectionFolders
)

// Sidebar shows the book list and the active book's folders stacked in
// one pane. Enter on a book activates it; enter on a folder loads it.
type Sidebar struct {
	books      []string
	folders    []string
	activeBook string

	section SidebarSection
	cursor  int
	offset  int

	width   int
	height  int
	focused bool
}

// NewSidebar creates an empty sidebar.
func NewSidebar() *Sidebar {
	return &Sidebar{section: SectionBooks}
}

// SetSize sets the rendered dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetFocused toggles keyboard focus.
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// Focused reports keyboard focus.
func (s *Sidebar) Focused() bool {
	return s.focused
}

// SetBooks replaces the book list.
func (s *Sidebar) SetBooks(books []string) {
	s.books = books
	s.clampCursor()
}

// SetFolders replaces the folder list for the active book.
func (s *Sidebar) SetFolders(folders []string, activeBook string) {
	s.folders = folders
	s.activeBook = activeBook
	s.clampCursor()
}

// ActiveBook returns the book whose folders are displayed.
func (s *Sidebar) ActiveBook() string {
	return s.activeBook
}

// Section returns the section holding the cursor.
func (s *Sidebar) Section() SidebarSection {
	return s.section
}

// Selected returns the entry under the cursor, or "" when the section is
// empty.
func (s *Sidebar) Selected() string {
	items := s.items()
	if s.cursor < 0 || s.cursor >= len(items) {
		return ""
	}
	return items[s.cursor]
}

func (s *Sidebar) items() []string {
	if s.section == SectionBooks {
		return s.books
	}
	return s.folders
}

// SwitchSection moves the cursor between the book and folder lists.
func (s *Sidebar) SwitchSection() {
	if s.section == SectionBooks {
		s.section = SectionFolders
	} else {
		s.section = SectionBooks
	}
	s.cursor = 0
	s.offset = 0
}

// MoveUp moves the cursor up one entry.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
	s.scrollIntoView()
}

// MoveDown moves the cursor down one entry.
func (s *Sidebar) MoveDown() {
	if s.cursor < len(s.items())-1 {
		s.cursor++
	}
	s.scrollIntoView()
}

// Home moves the cursor to the first entry.
func (s *Sidebar) Home() {
	s.cursor = 0
	s.offset = 0
}

// End moves the cursor to the last entry.
func (s *Sidebar) End() {
	if n := len(s.items()); n > 0 {
		s.cursor = n - 1
	}
	s.scrollIntoView()
}

func (s *Sidebar) clampCursor() {
	if n := len(s.items()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.scrollIntoView()
}

func (s *Sidebar) visibleRows() int {
	// Two section headers plus a blank line between sections.
	rows := s.height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (s *Sidebar) scrollIntoView() {
	rows := s.visibleRows()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var b strings.Builder

	b.WriteString(s.renderSection("Books", s.books, SectionBooks, displayBook))
	b.WriteString("\n")
	b.WriteString(s.renderSection("Pages", s.folders, SectionFolders, func(v string) string { return v }))

	return lipgloss.NewStyle().Width(s.width).Height(s.height).Render(b.String())
}

func (s *Sidebar) renderSection(title string, items []string, section SidebarSection, display func(string) string) string {
	var b strings.Builder

	header := styles.SubtitleStyle.Render(title)
	if s.focused && s.section == section {
		header = styles.AccentStyle.Bold(true).Render(title)
	}
	b.WriteString(header)
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(styles.DimStyle.Render("  (none)"))
		b.WriteString("\n")
		return b.String()
	}

	start, end := 0, len(items)
	if s.section == section {
		rows := s.visibleRows()
		start = s.offset
		end = start + rows
		if end > len(items) {
			end = len(items)
		}
	} else if len(items) > 6 {
		// Collapsed view for the unfocused section.
		end = 6
	}

	for i := start; i < end; i++ {
		label := styles.Truncate(display(items[i]), s.width-4)
		switch {
		case s.section == section && i == s.cursor && s.focused:
			b.WriteString(styles.FocusedItemStyle.Render(label))
		case s.section == section && i == s.cursor:
			b.WriteString(styles.SelectedItemStyle.Render(label))
		case section == SectionBooks && items[i] == s.activeBook:
			b.WriteString(styles.AccentStyle.Padding(0, 1).Render(label))
		default:
			b.WriteString(styles.NormalItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	if end < len(items) {
		b.WriteString(styles.DimStyle.Render("  …"))
		b.WriteString("\n")
	}

	return b.String()
}

func displayBook(book string) string {
	return domain.BookDisplayName(book)
}
