package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/capitancloud/ai-text-companion/internal/companion/chat"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// conversationsStartCmd represents the conversations start command
var conversationsStartCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start an interactive conversation",
	Long: `Start an interactive chat with continuous conversation.

You can either start a new conversation or continue an existing one by providing its ID.
The ID can be a short ID (minimum 4 characters), full UUID, or "latest".

Examples:
  companion conversations start            # Start a new conversation
  companion conversations start 550e8400   # Continue conversation 550e8400
  companion conversations start latest     # Continue the latest conversation`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openGatedApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if len(args) > 0 {
			conv, err := findConversation(a, args[0])
			if err != nil {
				return err
			}
			if err := a.store.SetActive(ctx, conv.ID); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "Continuing conversation: %s\n", conv.GetShortID())
			}
		} else {
			if _, err := a.store.Create(ctx); err != nil {
				return fmt.Errorf("creating conversation: %w", err)
			}
		}

		renderer := newTypingRenderer(os.Stdout, os.Stderr)
		engine, err := a.newEngine(renderer.observe, false)
		if err != nil {
			return err
		}

		historyFile := ""
		if err := os.MkdirAll(a.cfg.DataDir, 0755); err == nil {
			historyFile = filepath.Join(a.cfg.DataDir, ".history")
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          userLabelStyle.Render("You") + "> ",
			HistoryFile:     historyFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "",
		})
		if err != nil {
			return fmt.Errorf("initializing line editor: %w", err)
		}
		defer rl.Close()

		if err := runInteractiveMode(ctx, rl, a.store, engine, chat.New(a.store, engine, a.logger.Named("chat"))); err != nil {
			return fmt.Errorf("interactive mode: %w", err)
		}
		return nil
	},
}

// runInteractiveMode reads lines until /exit or EOF and runs a chat turn for
// each one. Ctrl+C during a reply interrupts that reply only.
func runInteractiveMode(ctx context.Context, rl *readline.Instance, store *conversation.Store, engine *simulator.Engine, c *chat.Chat) error {
	out := rl.Stderr()
	if conv, ok := store.Active(); ok {
		fmt.Fprintf(out, "\n=== Conversation [%s] %s ===\n", conv.GetShortID(), conv.Title)
	}
	fmt.Fprintf(out, "Type '/help' for commands, '/exit' or 'Ctrl+D' to quit\n")
	fmt.Fprintf(out, "===================================\n\n")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSpecialCommand(ctx, out, input, store) {
				continue
			}
			return nil
		}

		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		_, err = c.Send(turnCtx, input)
		stop()
		if err != nil {
			engine.Reset()
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, statusStyle.Render("(interrupted)"))
			} else {
				fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
			}
		}
		fmt.Fprintln(out)
	}
}

// handleSpecialCommand processes slash commands in interactive mode.
// Returns true to continue the loop, false to exit.
func handleSpecialCommand(ctx context.Context, w io.Writer, command string, store *conversation.Store) bool {
	command = strings.ToLower(strings.TrimSpace(command))

	switch command {
	case "/help", "/h":
		fmt.Fprintln(w, "\nAvailable commands:")
		fmt.Fprintln(w, "  /help, /h     - Show this help message")
		fmt.Fprintln(w, "  /info, /i     - Show conversation information")
		fmt.Fprintln(w, "  /new, /n      - Start a new conversation")
		fmt.Fprintln(w, "  /clear, /c    - Clear screen")
		fmt.Fprintln(w, "  /exit, /quit  - Exit interactive mode")
		fmt.Fprintln(w, "  Ctrl+D        - Exit interactive mode")
		fmt.Fprintln(w, "")
		return true

	case "/info", "/i":
		conv, ok := store.Active()
		if !ok {
			fmt.Fprintln(w, "No active conversation.")
			return true
		}
		fmt.Fprintln(w, "\nConversation Information:")
		fmt.Fprintf(w, "  ID: %s\n", conv.GetShortID())
		fmt.Fprintf(w, "  Full ID: %s\n", conv.ID)
		fmt.Fprintf(w, "  Title: %s\n", conv.Title)
		fmt.Fprintf(w, "  Messages: %d\n", conv.MessageCount())
		fmt.Fprintf(w, "  Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w, "")
		return true

	case "/new", "/n":
		id, err := store.Create(ctx)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return true
		}
		fmt.Fprintf(w, "Started conversation %s\n", id[:8])
		return true

	case "/clear", "/c":
		fmt.Fprint(w, "\033[H\033[2J")
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(w, "Goodbye!")
		return false

	default:
		fmt.Fprintf(w, "Unknown command: %s (type '/help' for available commands)\n", command)
		return true
	}
}

func init() {
	conversationsCmd.AddCommand(conversationsStartCmd)
}
