package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qbank/internal/domain"
	"qbank/internal/tui/styles"
)

// View renders the current screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading…"
	}

	var body string
	switch m.state {
	case stateAuthRequired:
		body = m.viewAuthRequired()
	case stateQuestions:
		body = m.questionList.View()
	case stateForm:
		body = m.form.View()
	case stateRawEditor:
		body = m.rawEditor.View()
	case stateTextEditor:
		body = m.textEditor.View()
	case stateHelp:
		body = m.viewHelp()
	case stateConfirmDelete:
		body = m.viewConfirmDelete()
	case stateUpload:
		body = m.viewUpload()
	default:
		body = m.viewBrowse()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.viewStatusBar())
}

func (m *Model) viewBrowse() string {
	sidebar := m.sidebar.View()
	grid := m.grid.View()

	sidebarBox := styles.InactiveBorder
	gridBox := styles.InactiveBorder
	if m.pane == paneSidebar {
		sidebarBox = styles.ActiveBorder
	} else {
		gridBox = styles.ActiveBorder
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		sidebarBox.Render(sidebar),
		gridBox.Render(grid),
	)
}

func (m *Model) viewUpload() string {
	modal := m.uploadModal.View()
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, modal)
}

func (m *Model) viewConfirmDelete() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Delete question"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Delete question #%d? This cannot be undone.", m.deleteTarget))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpKeyStyle.Render("y"))
	b.WriteString(styles.HelpDescStyle.Render(" delete   "))
	b.WriteString(styles.HelpKeyStyle.Render("n/esc"))
	b.WriteString(styles.HelpDescStyle.Render(" keep"))

	modal := styles.ModalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, modal)
}

func (m *Model) viewAuthRequired() string {
	var b strings.Builder
	b.WriteString(styles.ErrorStyle.Render("Session expired or not authenticated."))
	b.WriteString("\n\n")
	b.WriteString("Run ")
	b.WriteString(styles.AccentStyle.Render("qbank login"))
	b.WriteString(" to sign in, then start the console again.")
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("C-c to exit"))

	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, b.String())
}

func (m *Model) viewHelp() string {
	rows := []struct{ key, desc string }{
		{"tab", "switch between books/pages and the image grid"},
		{"j/k or arrows", "move"},
		{"enter", "activate book / open folder / show image URL"},
		{"space", "tag image in the current mode"},
		{"m", "switch tagging mode (question/answer)"},
		{"c", "clear all tags"},
		{"n", "new question from current tags"},
		{"Q", "question list"},
		{"e / enter", "edit selected question"},
		{"x", "delete selected question"},
		{"/", "filter questions"},
		{"J", "raw question file editor"},
		{"t", "page text editor"},
		{"u", "upload PDF"},
		{"r", "refresh"},
		{"L", "logout"},
		{"?", "toggle help"},
		{"C-c", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keyboard"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(styles.HelpKeyStyle.Render(styles.Pad(row.key, 16)))
		b.WriteString(styles.HelpDescStyle.Render(row.desc))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) viewStatusBar() string {
	if m.statusText != "" {
		if m.statusError {
			return styles.ErrorStyle.Render(" " + m.statusText)
		}
		return styles.SuccessStyle.Render(" " + m.statusText)
	}

	book := domain.BookDisplayName(m.svc.Library.ActiveBook())
	folder := m.svc.Library.ActiveFolder()
	if folder == "" {
		folder = "-"
	}

	sel := m.activeSelection()
	qCount, aCount := sel.Count()

	parts := []string{
		styles.AccentStyle.Render(" " + book),
		styles.DimStyle.Render("page:") + folder,
		styles.DimStyle.Render("mode:") + string(sel.Mode()),
		fmt.Sprintf("%dQ/%dA", qCount, aCount),
	}

	if m.svc.Upload.Poller().IsActive() {
		parts = append(parts, styles.WarnStyle.Render("ingesting…"))
	}
	if user := m.svc.Session.User(); user != nil {
		parts = append(parts, styles.DimStyle.Render(user.Username))
	}

	return strings.Join(parts, styles.DimStyle.Render(" │ "))
}
