package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/search"
)

// MsgTreeReady carries a completed rescan result.
type MsgTreeReady *domain.TreeNode

// MsgDocLoaded carries a loaded document.
type MsgDocLoaded *app.Document

// MsgSearchResults carries content search hits.
type MsgSearchResults struct {
	Hits  []search.Hit
	Total uint64
}

// MsgError indicates an error occurred.
type MsgError error

func loadDocumentCmd(session *app.Session, relPath string) tea.Cmd {
	return func() tea.Msg {
		doc, err := session.LoadDocument(relPath)
		if err != nil {
			return MsgError(err)
		}
		return MsgDocLoaded(doc)
	}
}

func searchContentCmd(session *app.Session, query string) tea.Cmd {
	return func() tea.Msg {
		hits, total, err := session.SearchContent(context.Background(), query, "")
		if err != nil {
			return MsgError(err)
		}
		return MsgSearchResults{Hits: hits, Total: total}
	}
}

func rescanCmd(session *app.Session) tea.Cmd {
	return func() tea.Msg {
		tree, err := session.Rescan(context.Background())
		if err != nil {
			return MsgError(err)
		}
		return MsgTreeReady(tree)
	}
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowSize = msg
		m.docView.Width = msg.Width - treePaneWidth(msg.Width) - 4
		m.docView.Height = msg.Height - 4
		return m, nil

	case MsgTreeReady:
		m.setTree(msg)
		return m, nil

	case MsgDocLoaded:
		m.doc = msg
		m.err = nil
		m.docView.SetContent(renderDocument(msg, m.docView.Width))
		m.docView.GotoTop()
		m.controller.Select(msg.Path)
		return m, nil

	case MsgSearchResults:
		m.searchHits = msg.Hits
		m.searchTotal = msg.Total
		m.searchCursor = 0
		return m, nil

	case MsgError:
		m.err = msg
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.filterInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.filterInput.Blur()
			return m, nil
		case tea.KeyEsc:
			return m.clearFilter(), nil
		}
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.filterResult = search.Filter(m.tree, m.filterInput.Value())
		m.reproject()
		return m, cmd
	}

	if m.searchInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.searchInput.Blur()
			query := m.searchInput.Value()
			if query == "" {
				m.searchActive = false
				return m, nil
			}
			return m, searchContentCmd(m.session, query)
		case tea.KeyEsc:
			m.searchActive = false
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			m.searchHits = nil
			return m, nil
		}
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	// Content search results take over list navigation while shown.
	if m.searchActive && len(m.searchHits) > 0 {
		switch msg.String() {
		case "up", "k":
			if m.searchCursor > 0 {
				m.searchCursor--
			}
			return m, nil
		case "down", "j":
			if m.searchCursor < len(m.searchHits)-1 {
				m.searchCursor++
			}
			return m, nil
		case "enter":
			hit := m.searchHits[m.searchCursor]
			m.searchActive = false
			m.searchHits = nil
			m.searchInput.SetValue("")
			return m, loadDocumentCmd(m.session, hit.Path)
		case "esc", "q":
			m.searchActive = false
			m.searchHits = nil
			m.searchInput.SetValue("")
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		if m.filterActive {
			return m.clearFilter(), nil
		}

	case "tab":
		if m.focus == paneTree {
			m.focus = paneDocument
		} else {
			m.focus = paneTree
		}

	case "up", "k":
		if m.focus == paneDocument {
			m.docView.LineUp(1)
		} else {
			m.controller.MovePrevious()
		}

	case "down", "j":
		if m.focus == paneDocument {
			m.docView.LineDown(1)
		} else {
			m.controller.MoveNext()
		}

	case "pgup":
		m.docView.HalfViewUp()

	case "pgdown":
		m.docView.HalfViewDown()

	case "right", "l":
		m.controller.ExpandOrEnter()
		m.reproject()

	case "left", "h":
		m.controller.CollapseOrExit()
		m.reproject()

	case "enter":
		if vn, ok := m.controller.Selected(); ok {
			if vn.Node.IsFolder() {
				m.toggleFolder(vn.Node.ID)
			} else {
				return m, loadDocumentCmd(m.session, vn.Node.ID)
			}
		}

	case "/":
		m.filterActive = true
		m.focus = paneTree
		m.filterInput.SetValue("")
		m.filterResult = nil
		m.reproject()
		return m, m.filterInput.Focus()

	case "s":
		m.searchActive = true
		m.searchHits = nil
		return m, m.searchInput.Focus()

	case "r":
		return m, rescanCmd(m.session)

	case "E":
		m.setAllFolders(true)

	case "C":
		m.setAllFolders(false)
	}

	return m, nil
}

// clearFilter drops the name filter and restores expansion-driven
// visibility.
func (m AppModel) clearFilter() AppModel {
	m.filterActive = false
	m.filterInput.Blur()
	m.filterInput.SetValue("")
	m.filterResult = nil
	m.reproject()
	return m
}
