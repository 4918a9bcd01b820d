// Package tui is the interactive terminal front end: index status, model
// selection, indexing progress and chat.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"docqa/internal/config"
	"docqa/internal/embedder"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewSetup
	ViewIndexing
	ViewChat
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state   ViewState
	config  config.Config
	root    string
	program *programRef
	width   int
	height  int

	welcome  welcomeModel
	setup    setupModel
	indexing indexingModel
	chat     chatModel
	store    *store.SQLiteStore
	err      error
}

// New creates a new TUI model. root is the document or directory indexed
// from the setup screen.
func New(cfg config.Config, root string) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
		root:   root,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter to transition.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			if m.welcome.status == indexReady {
				return m, m.transitionToChat()
			}
			// Need indexing, go to setup.
			m.state = ViewSetup
			return m, fetchModels(m.config.OllamaURL)
		}

	case ViewSetup:
		m.setup, cmd = m.setup.Update(msg, m.config)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.setup.loaded && m.setup.err == nil && len(m.setup.models) > 0 {
			// If on embed page, advance to chat page.
			if m.setup.advancePage() {
				return m, nil
			}
			// On chat page, apply selections and start indexing.
			if sel := m.setup.selectedEmbedModel(); sel != "" {
				m.config.Embedding.Model = sel
			}
			if sel := m.setup.selectedChatModel(); sel != "" {
				m.config.Completion.Model = sel
			}
			m.state = ViewIndexing
			m.indexing = newIndexingModel()
			return m, tea.Batch(m.indexing.spinner.Tick, runIndex(m.config, m.root, m.program))
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter after indexing completes.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.done {
			return m, m.transitionToChat()
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToChat() tea.Cmd {
	p, st, err := openPipeline(m.config)
	if err != nil {
		m.err = err
		return nil
	}
	m.store = st

	m.chat = newChatModel(p)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat

	return nil
}

// openPipeline opens the persisted index and wires the query-time pipeline
// over it. Logging is discarded while the alt screen is active.
func openPipeline(cfg config.Config) (*rag.Pipeline, *store.SQLiteStore, error) {
	st, err := store.Open(cfg.Index.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	if err := st.VerifyModel(cfg.Embedding.Model); err != nil {
		st.Close()
		return nil, nil, err
	}
	comp, err := llm.New(cfg.OllamaURL, cfg.Completion)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	// Load document overview.
	var overview string
	if data, err := os.ReadFile(cfg.Index.OverviewPath()); err == nil {
		overview = string(data)
	}

	retriever := rag.NewRetriever(embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.Embedding), st, cfg.Retrieval)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return rag.NewPipeline(retriever, rag.NewComposer(comp, overview), cfg.Retrieval.K, logger), st, nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewSetup:
		return m.setup.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program over the documents in the working directory.
func Run(cfg config.Config) error {
	ref := &programRef{}
	model := New(cfg, ".")
	model.program = ref
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	final, err := p.Run()
	if m, ok := final.(Model); ok && m.store != nil {
		m.store.Close()
	}
	return err
}
