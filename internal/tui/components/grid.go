package components

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qbank/internal/domain"
	"qbank/internal/tui/styles"
)

const minCellWidth = 18

// ImageGrid lays the current folder's cropped images out in rows and
// tracks a cursor. Each cell shows the image's file name and a badge for
// its tag state: Q, A, or Q+A when the image is in both lists.
type ImageGrid struct {
	images    []domain.ImageRef
	selection *domain.Selection

	cursor  int
	offset  int // first visible row
	columns int

	width   int
	height  int
	focused bool
}

// NewImageGrid creates an empty grid bound to a selection.
func NewImageGrid(selection *domain.Selection) *ImageGrid {
	return &ImageGrid{
		selection: selection,
		columns:   4,
	}
}

// SetSize sets the rendered dimensions and recomputes the column count.
func (g *ImageGrid) SetSize(width, height int) {
	g.width = width
	g.height = height

	g.columns = width / (minCellWidth + 2)
	if g.columns < 1 {
		g.columns = 1
	}
	g.scrollIntoView()
}

// SetColumns overrides the computed column count, e.g. from config.
func (g *ImageGrid) SetColumns(columns int) {
	if columns >= 1 {
		g.columns = columns
		g.scrollIntoView()
	}
}

// SetFocused toggles keyboard focus.
func (g *ImageGrid) SetFocused(focused bool) {
	g.focused = focused
}

// SetSelection rebinds the grid to another selection, e.g. when moving
// between the new-question and edit flows.
func (g *ImageGrid) SetSelection(selection *domain.Selection) {
	g.selection = selection
}

// SetImages replaces the grid contents and resets the cursor.
func (g *ImageGrid) SetImages(images []domain.ImageRef) {
	g.images = images
	g.cursor = 0
	g.offset = 0
}

// Images returns the grid contents.
func (g *ImageGrid) Images() []domain.ImageRef {
	return g.images
}

// Selected returns the image under the cursor, or "" on an empty grid.
func (g *ImageGrid) Selected() domain.ImageRef {
	if g.cursor < 0 || g.cursor >= len(g.images) {
		return ""
	}
	return g.images[g.cursor]
}

// ToggleSelected toggles the cursor image's tag in the active mode and
// returns the affected ref, or "" on an empty grid.
func (g *ImageGrid) ToggleSelected() domain.ImageRef {
	ref := g.Selected()
	if ref == "" {
		return ""
	}
	g.selection.Toggle(ref)
	return ref
}

// Movement

func (g *ImageGrid) MoveLeft() {
	if g.cursor > 0 {
		g.cursor--
	}
	g.scrollIntoView()
}

func (g *ImageGrid) MoveRight() {
	if g.cursor < len(g.images)-1 {
		g.cursor++
	}
	g.scrollIntoView()
}

func (g *ImageGrid) MoveUp() {
	if g.cursor-g.columns >= 0 {
		g.cursor -= g.columns
	}
	g.scrollIntoView()
}

func (g *ImageGrid) MoveDown() {
	if g.cursor+g.columns < len(g.images) {
		g.cursor += g.columns
	}
	g.scrollIntoView()
}

func (g *ImageGrid) Home() {
	g.cursor = 0
	g.offset = 0
}

func (g *ImageGrid) End() {
	if len(g.images) > 0 {
		g.cursor = len(g.images) - 1
	}
	g.scrollIntoView()
}

// Cell height: name row plus badge row plus two border rows.
const cellHeight = 4

func (g *ImageGrid) visibleRowCount() int {
	rows := g.height / cellHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (g *ImageGrid) scrollIntoView() {
	if g.columns < 1 {
		return
	}
	row := g.cursor / g.columns
	visible := g.visibleRowCount()
	if row < g.offset {
		g.offset = row
	}
	if row >= g.offset+visible {
		g.offset = row - visible + 1
	}
	if g.offset < 0 {
		g.offset = 0
	}
}

// View renders the visible rows of the grid.
func (g *ImageGrid) View() string {
	if len(g.images) == 0 {
		return styles.DimStyle.Render("No images in this folder")
	}

	cellWidth := g.width/g.columns - 2
	if cellWidth < minCellWidth {
		cellWidth = minCellWidth
	}

	totalRows := (len(g.images) + g.columns - 1) / g.columns
	endRow := g.offset + g.visibleRowCount()
	if endRow > totalRows {
		endRow = totalRows
	}

	var rows []string
	for row := g.offset; row < endRow; row++ {
		var cells []string
		for col := 0; col < g.columns; col++ {
			idx := row*g.columns + col
			if idx >= len(g.images) {
				break
			}
			cells = append(cells, g.renderCell(idx, cellWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return strings.Join(rows, "\n")
}

func (g *ImageGrid) renderCell(idx, width int) string {
	ref := g.images[idx]
	name := styles.Truncate(path.Base(string(ref)), width-2)

	badge := g.renderBadge(ref)
	content := name + "\n" + badge

	style := styles.GridCellStyle
	if idx == g.cursor && g.focused {
		style = styles.GridCellSelectedStyle
	}
	return style.Width(width).Render(content)
}

func (g *ImageGrid) renderBadge(ref domain.ImageRef) string {
	isQ := g.selection.IsQuestion(ref)
	isA := g.selection.IsAnswer(ref)
	switch {
	case isQ && isA:
		return styles.BothBadge.Render("Q+A")
	case isQ:
		return styles.QuestionBadge.Render("Q")
	case isA:
		return styles.AnswerBadge.Render("A")
	default:
		return " "
	}
}
