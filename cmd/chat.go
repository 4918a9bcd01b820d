package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"docqa/internal/llm"

	"github.com/spf13/cobra"
)

// maxHistory is the number of messages kept, 10 turns.
const maxHistory = 20

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about your indexed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		var history []llm.Message
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("docqa chat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				history = nil
				fmt.Println("Conversation cleared.")
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /clear  - clear conversation history")
				fmt.Println("  /exit   - quit chat")
				fmt.Println("  /help   - show this help")
				continue
			}

			fmt.Println("[Searching...]")

			answer, err := s.pipeline.Chat(ctx, question, history)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}

			fmt.Println()
			fmt.Println(strings.TrimSpace(answer.Text))
			if len(answer.Chunks) > 0 {
				fmt.Printf("\n(from %s)\n", location(answer.Chunks[0]))
			}
			fmt.Println()

			history = append(history,
				llm.Message{Role: "user", Content: question},
				llm.Message{Role: "assistant", Content: answer.Text})
			if len(history) > maxHistory {
				history = history[len(history)-maxHistory:]
			}
		}

		return scanner.Err()
	},
}

func init() {
	addRetrievalFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}
