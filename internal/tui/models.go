package tui

import (
	"fmt"
	"strings"

	"docqa/internal/llm"
)

// splitModels separates embedding models from generative ones by name.
// When a side ends up empty it falls back to the full list.
func splitModels(models []llm.ModelInfo) (embed, chat []llm.ModelInfo) {
	for _, model := range models {
		nameLower := strings.ToLower(model.Name)
		if strings.Contains(nameLower, "embed") || strings.Contains(nameLower, "nomic") || strings.Contains(nameLower, "bge") {
			embed = append(embed, model)
		} else {
			chat = append(chat, model)
		}
	}
	if len(embed) == 0 {
		embed = models
	}
	if len(chat) == 0 {
		chat = models
	}
	return embed, chat
}

// indexOf returns the position of name in models, or 0.
func indexOf(models []llm.ModelInfo, name string) int {
	for i, model := range models {
		if model.Name == name {
			return i
		}
	}
	return 0
}

// formatSize returns a human-readable size string.
func formatSize(bytes int64) string {
	const gb = 1024 * 1024 * 1024
	const mb = 1024 * 1024
	if bytes >= gb {
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/float64(mb))
}
