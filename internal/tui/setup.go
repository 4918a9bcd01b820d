package tui

import (
	"context"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/llm"

	tea "github.com/charmbracelet/bubbletea"
)

type setupPage int

const (
	setupPageEmbed setupPage = iota
	setupPageChat
)

type setupModel struct {
	models      []llm.ModelInfo
	embedModels []llm.ModelInfo
	chatModels  []llm.ModelInfo
	embedCursor int
	chatCursor  int
	page        setupPage
	loaded      bool
	err         error
}

// fetchModelsMsg is sent when models have been fetched from Ollama.
type fetchModelsMsg struct {
	models []llm.ModelInfo
	err    error
}

func fetchModels(baseURL string) tea.Cmd {
	return func() tea.Msg {
		models, err := llm.ListModels(context.Background(), baseURL)
		return fetchModelsMsg{models: models, err: err}
	}
}

func (m setupModel) Update(msg tea.Msg, cfg config.Config) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchModelsMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.models = msg.models
		m.embedModels, m.chatModels = splitModels(msg.models)

		// Preselect the configured models.
		m.embedCursor = indexOf(m.embedModels, cfg.Embedding.Model)
		m.chatCursor = indexOf(m.chatModels, cfg.Completion.Model)

	case tea.KeyMsg:
		if !m.loaded || m.err != nil {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.page == setupPageEmbed && m.embedCursor > 0 {
				m.embedCursor--
			} else if m.page == setupPageChat && m.chatCursor > 0 {
				m.chatCursor--
			}
		case "down", "j":
			if m.page == setupPageEmbed && m.embedCursor < len(m.embedModels)-1 {
				m.embedCursor++
			} else if m.page == setupPageChat && m.chatCursor < len(m.chatModels)-1 {
				m.chatCursor++
			}
		}
	}
	return m, nil
}

// advancePage moves from embed page to chat page. Returns true if it advanced.
func (m *setupModel) advancePage() bool {
	if m.page == setupPageEmbed {
		m.page = setupPageChat
		return true
	}
	return false
}

func (m setupModel) View(width, height int) string {
	s := "\n"

	if !m.loaded {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += dimStyle.Render("  Fetching models from Ollama...") + "\n"
		return s
	}

	if m.err != nil {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
		s += dimStyle.Render("  Make sure Ollama is running and try again.") + "\n"
		s += dimStyle.Render("  Press q to quit.") + "\n"
		return s
	}

	if len(m.models) == 0 {
		s += titleStyle.Render("  Model Selection") + "\n\n"
		s += warnStyle.Render("  No models found in Ollama.") + "\n"
		s += dimStyle.Render("  Pull a model first: ollama pull nomic-embed-text") + "\n"
		return s
	}

	if m.page == setupPageEmbed {
		s += titleStyle.Render("  Select Embedding Model") + "\n"
		s += dimStyle.Render("  Used to embed document passages and questions") + "\n\n"
		s += renderModelList(m.embedModels, m.embedCursor)
		s += "\n"
		s += helpStyle.Render("  ↑/↓ navigate • Enter select") + "\n"
	} else {
		s += titleStyle.Render("  Select Chat Model") + "\n"
		s += dimStyle.Render("  Used for answering questions and summarizing documents") + "\n\n"
		s += renderModelList(m.chatModels, m.chatCursor)
		s += "\n"
		s += helpStyle.Render("  ↑/↓ navigate • Enter confirm") + "\n"
	}

	return s
}

func renderModelList(models []llm.ModelInfo, cursor int) string {
	var s string
	for i, model := range models {
		marker := "  "
		style := listItemStyle
		if i == cursor {
			marker = "▸ "
			style = selectedStyle
		}
		s += fmt.Sprintf("  %s%s\n", marker, style.Render(fmt.Sprintf("%s (%s)", model.Name, formatSize(model.Size))))
	}
	return s
}

func (m setupModel) selectedEmbedModel() string {
	if len(m.embedModels) > 0 && m.embedCursor < len(m.embedModels) {
		return m.embedModels[m.embedCursor].Name
	}
	return ""
}

func (m setupModel) selectedChatModel() string {
	if len(m.chatModels) > 0 && m.chatCursor < len(m.chatModels) {
		return m.chatModels[m.chatCursor].Name
	}
	return ""
}
