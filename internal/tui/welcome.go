package tui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"docqa/internal/config"
	"docqa/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexStale
)

type welcomeModel struct {
	status      indexStatus
	staleReason string
	documents   int
	chunks      int
	ready       bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status      indexStatus
	staleReason string
	documents   int
	chunks      int
	err         error
}

// checkIndex reports whether the persisted index can serve the current
// configuration. An index built with another embedding model or chunking
// is stale.
func checkIndex(cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		dbPath := cfg.Index.DBPath()
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			return checkIndexMsg{status: indexNotFound}
		}

		st, err := store.Open(dbPath)
		if err != nil {
			return checkIndexMsg{status: indexNotFound, err: err}
		}
		defer st.Close()

		lastModel, err := st.Meta(store.MetaEmbeddingModel)
		if err != nil || lastModel == "" {
			return checkIndexMsg{status: indexNotFound}
		}

		docs, err := st.Sources(context.Background())
		if err != nil {
			return checkIndexMsg{status: indexNotFound, err: err}
		}
		msg := checkIndexMsg{status: indexReady, documents: len(docs), chunks: st.Len()}

		if lastModel != cfg.Embedding.Model {
			msg.status = indexStale
			msg.staleReason = fmt.Sprintf("model changed: %s → %s", lastModel, cfg.Embedding.Model)
			return msg
		}
		size, _ := st.Meta(store.MetaChunkSize)
		overlap, _ := st.Meta(store.MetaChunkOverlap)
		if size != strconv.Itoa(cfg.Chunking.Size) || overlap != strconv.Itoa(cfg.Chunking.Overlap) {
			msg.status = indexStale
			msg.staleReason = fmt.Sprintf("chunking changed: %s/%s → %d/%d", size, overlap, cfg.Chunking.Size, cfg.Chunking.Overlap)
			return msg
		}
		if st.Len() == 0 {
			msg.status = indexNotFound
		}
		return msg
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.staleReason = msg.staleReason
		m.documents = msg.documents
		m.chunks = msg.chunks
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ docqa") + "\n"
	s += subtitleStyle.Render("  Ask questions about your PDF and Word documents") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render("  ✓ Index ready") + "\n"
		s += dimStyle.Render(fmt.Sprintf("    %d documents, %d chunks", m.documents, m.chunks)) + "\n"
	case indexNotFound:
		s += warnStyle.Render("  ✗ No index found") + "\n"
		s += dimStyle.Render("    Enter indexes the documents in the current directory") + "\n"
	case indexStale:
		s += warnStyle.Render("  ⚠ Index stale") + "\n"
		s += dimStyle.Render("    "+m.staleReason) + "\n"
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
