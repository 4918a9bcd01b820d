package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"docqa/internal/config"
	"docqa/internal/index"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	spinner   spinner.Model
	phase     string
	processed int
	total     int
	done      bool
	stats     *index.Stats
	err       error
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		spinner: sp,
		phase:   "Loading documents...",
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent periodically during indexing.
type indexProgressMsg struct {
	phase     string
	processed int
	total     int
}

// runIndex rebuilds the index from the documents under root. Log output is
// discarded so it cannot tear the alt screen.
func runIndex(cfg config.Config, root string, ref *programRef) tea.Cmd {
	return func() tea.Msg {
		idx, err := index.New(index.Config{
			Index:      cfg.Index,
			OllamaURL:  cfg.OllamaURL,
			Embedding:  cfg.Embedding,
			Chunking:   cfg.Chunking,
			Completion: cfg.Completion,
			Overview:   true,
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			OnProgress: func(phase string, processed, total int) {
				if ref != nil && ref.p != nil {
					ref.p.Send(indexProgressMsg{
						phase:     phase,
						processed: processed,
						total:     total,
					})
				}
			},
		})
		if err != nil {
			return indexDoneMsg{err: err}
		}
		defer idx.Close()

		stats, err := idx.Index(context.Background(), root)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		m.phase = msg.phase
		m.processed = msg.processed
		m.total = msg.total
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press Enter to continue to chat anyway, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Documents: %d total, %d indexed, %d skipped\n",
				m.stats.DocumentsTotal, m.stats.DocumentsIndexed, m.stats.DocumentsSkipped)
			s += fmt.Sprintf("  Pages: %d\n", m.stats.Pages)
			s += fmt.Sprintf("  Chunks: %d\n", m.stats.ChunksTotal)
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d\n", m.processed, m.total)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large documents...") + "\n"
	return s
}
