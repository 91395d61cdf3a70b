package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/nav"
	"github.com/mdshelf/mdshelf/internal/search"
)

// pane identifies which side of the split has keyboard focus.
type pane int

const (
	paneTree pane = iota
	paneDocument
)

// AppModel holds the TUI state.
type AppModel struct {
	session    *app.Session
	controller *nav.Controller

	// Data
	tree *domain.TreeNode
	doc  *app.Document
	err  error

	// Name filter
	filterInput  textinput.Model
	filterActive bool
	filterResult *search.Result

	// Content search
	searchInput  textinput.Model
	searchActive bool
	searchHits   []search.Hit
	searchTotal  uint64
	searchCursor int

	// UI state
	focus      pane
	windowSize tea.WindowSizeMsg
	docView    viewport.Model
}

// NewModel builds the initial model around a prepared session. The session
// must already hold the first scan result.
func NewModel(session *app.Session) AppModel {
	fi := textinput.New()
	fi.Placeholder = "Filter tree..."
	fi.CharLimit = 100
	fi.Width = 30

	si := textinput.New()
	si.Placeholder = "Search content..."
	si.CharLimit = 200
	si.Width = 40

	m := AppModel{
		session:     session,
		filterInput: fi,
		searchInput: si,
	}
	// Toggles write straight to the store; Update re-projects afterwards.
	m.controller = nav.NewController(nav.Hooks{
		IsExpanded: session.Store.IsExpanded,
		ToggleFolder: func(nodeID string) {
			_, _ = session.Store.Toggle(nodeID)
		},
	})
	m.setTree(session.Tree())
	return m
}

// Init restores the last opened document, if any.
func (m AppModel) Init() tea.Cmd {
	if last := m.session.Store.LastOpened(); last != "" {
		return loadDocumentCmd(m.session, last)
	}
	return nil
}

// setTree installs a new scan result and re-projects the visible sequence,
// re-applying the active filter against the new tree.
func (m *AppModel) setTree(tree *domain.TreeNode) {
	m.tree = tree
	m.controller.SetTree(tree)
	if m.filterActive {
		m.filterResult = search.Filter(tree, m.filterInput.Value())
	}
	m.reproject()
}

// reproject recomputes the visible-node sequence from the current tree,
// expansion state, and filter.
func (m *AppModel) reproject() {
	m.controller.SetVisible(nav.Flatten(m.tree, m.session.Store.IsExpanded, m.filterResult))
}

// toggleFolder flips a folder's persisted expansion state and re-projects.
func (m *AppModel) toggleFolder(nodeID string) {
	if _, err := m.session.Store.Toggle(nodeID); err != nil {
		m.err = err
		return
	}
	m.reproject()
}

// setAllFolders expands or collapses every folder in the tree at once.
func (m *AppModel) setAllFolders(expanded bool) {
	if m.tree == nil {
		return
	}
	var ids []string
	m.tree.Walk(func(node, parent *domain.TreeNode) bool {
		if node.IsFolder() && node.ID != domain.RootID {
			ids = append(ids, node.ID)
		}
		return true
	})
	if err := m.session.Store.SetAll(ids, expanded); err != nil {
		m.err = err
		return
	}
	m.reproject()
}
