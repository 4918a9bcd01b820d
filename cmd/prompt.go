package cmd

import (
	"fmt"
	"strings"

	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/vision"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Ask the chat model a question directly, without the index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := llm.New(cfg.OllamaURL, cfg.Completion)
		if err != nil {
			return err
		}
		answer, err := rag.AskDirect(cmd.Context(), comp, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(strings.TrimSpace(answer))
		return nil
	},
}

var flagVisionPrompt string

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the animal in an image with the vision model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := llm.NewOllama(cfg.OllamaURL, cfg.Completion).WithModel(cfg.Completion.VisionModel)
		result, err := vision.Identify(cmd.Context(), client, args[0], flagVisionPrompt)
		if err != nil {
			return err
		}
		fmt.Println("Result:")
		fmt.Println(strings.TrimSpace(result))
		return nil
	},
}

func init() {
	identifyCmd.Flags().StringVar(&flagVision, "vision-model", "", "multimodal model (default qwen2.5vl:7b)")
	identifyCmd.Flags().StringVar(&flagVisionPrompt, "prompt", "", "instruction sent with the image")
	rootCmd.AddCommand(promptCmd, identifyCmd)
}
