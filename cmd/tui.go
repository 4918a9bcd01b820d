package cmd

import (
	"docqa/internal/tui"
)

func runTUI() error {
	return tui.Run(cfg)
}
