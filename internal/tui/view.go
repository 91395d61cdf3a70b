package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/mdshelf/mdshelf/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F87AF")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	matchedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	folderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("63"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	outlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("108"))
)

// treePaneWidth is the width reserved for the tree pane at a given terminal
// width.
func treePaneWidth(total int) int {
	w := total / 3
	if w < 24 {
		w = 24
	}
	return w
}

func (m AppModel) View() string {
	if m.windowSize.Width == 0 {
		return "\n  Loading shelf...\n"
	}

	width := m.windowSize.Width
	height := m.windowSize.Height

	paneHeight := height - 3
	if paneHeight < 5 {
		paneHeight = 5
	}

	leftWidth := treePaneWidth(width)
	rightWidth := width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
	}

	left := m.renderTreePane(leftWidth, paneHeight)
	right := m.renderDocumentPane(rightWidth, paneHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var b strings.Builder
	b.WriteString(titleStyle.Render("mdshelf"))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(m.session.Settings.Root))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar(width))
	return b.String()
}

func (m AppModel) renderTreePane(width, height int) string {
	style := paneStyle
	if m.focus == paneTree {
		style = focusedPaneStyle
	}

	var lines []string
	if m.filterActive {
		lines = append(lines, m.filterInput.View())
	}
	if m.searchActive {
		return style.Width(width).Height(height).Render(m.renderSearchPane(height))
	}

	visible := m.controller.Visible()
	selected := m.controller.SelectedIndex()

	if len(visible) == 0 {
		empty := "No markdown files found"
		if m.filterActive {
			empty = "No matches"
		}
		lines = append(lines, dimStyle.Render(empty))
	}

	// Keep the selection in view by windowing around it.
	listHeight := height - len(lines)
	start := 0
	if selected >= 0 && selected >= listHeight {
		start = selected - listHeight + 1
	}
	for i := start; i < len(visible) && i-start < listHeight; i++ {
		lines = append(lines, m.renderTreeLine(visible[i], i == selected, width-4))
	}

	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m AppModel) renderTreeLine(vn domain.VisibleNode, selected bool, width int) string {
	indent := strings.Repeat("  ", vn.Depth)

	var marker, label string
	if vn.Node.IsFolder() {
		marker = "▸ "
		if m.filterResult != nil || m.session.Store.IsExpanded(vn.Node.ID) {
			marker = "▾ "
		}
		label = vn.Node.Name + "/"
	} else {
		marker = "  "
		label = vn.Node.Name
	}

	line := indent + marker + label
	if vn.Node.IsFolder() {
		line += countStyle.Render(fmt.Sprintf(" (%d)", vn.Node.ItemCount))
	}

	switch {
	case selected:
		return selectedStyle.Render("> " + truncate(line, width))
	case vn.Matched:
		return "  " + matchedStyle.Render(truncate(line, width))
	case vn.Node.IsFolder():
		return "  " + folderStyle.Render(truncate(line, width))
	default:
		return "  " + truncate(line, width)
	}
}

func (m AppModel) renderSearchPane(height int) string {
	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if len(m.searchHits) == 0 {
		if !m.searchInput.Focused() {
			b.WriteString(dimStyle.Render("No results"))
		}
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("%d documents matched", m.searchTotal)))
	b.WriteString("\n")
	for i, hit := range m.searchHits {
		if i >= height-5 {
			break
		}
		line := fmt.Sprintf("%s  %s", hit.Title, dimStyle.Render(hit.Path))
		if i == m.searchCursor {
			b.WriteString(selectedStyle.Render("> " + hit.Title + "  " + hit.Path))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) renderDocumentPane(width, height int) string {
	style := paneStyle
	if m.focus == paneDocument {
		style = focusedPaneStyle
	}

	if m.err != nil {
		return style.Width(width).Height(height).Render(errorStyle.Render("Error: " + m.err.Error()))
	}
	if m.doc == nil {
		return style.Width(width).Height(height).Render(dimStyle.Render("Select a document and press enter"))
	}

	header := titleStyle.Render(m.doc.Title)
	return style.Width(width).Height(height).Render(header + "\n\n" + m.docView.View())
}

// renderDocument builds the scrollable document pane content: the heading
// outline followed by the source text.
func renderDocument(doc *app.Document, width int) string {
	var b strings.Builder
	if len(doc.Outline) > 0 {
		for _, h := range doc.Outline {
			indent := strings.Repeat("  ", h.Level-1)
			b.WriteString(outlineStyle.Render(indent + "• " + h.Text))
			b.WriteString(dimStyle.Render("  #" + h.AnchorID))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(doc.Source)
	return b.String()
}

func (m AppModel) renderStatusBar(width int) string {
	if m.filterInput.Focused() {
		return dimStyle.Render("enter: keep filter  esc: clear")
	}
	if m.searchInput.Focused() {
		return dimStyle.Render("enter: search  esc: cancel")
	}
	help := "↑/↓ move  ←/→ fold  enter open  / filter  s search  r rescan  E/C expand/collapse all  q quit"
	return dimStyle.Render(truncate(help, width))
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
