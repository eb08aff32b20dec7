/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/chat"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/spf13/cobra"
)

var (
	conversationID  string
	newConversation bool
	showRequest     bool
	noTyping        bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to the simulated AI",
	Long: `Send a message to the simulated AI and print the reply as it is typed.

The message goes to the active conversation; a new conversation is created
when none is active. Use --conversation to pick another one or --new to start
a fresh one.

If no message is provided as an argument, it reads from stdin.

For interactive multi-turn conversations, use 'companion conversations start'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if conversationID != "" && newConversation {
			return fmt.Errorf("cannot specify both --conversation and --new")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := openGatedApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		// Get message from arguments or stdin
		var message string
		if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = strings.TrimSpace(string(input))
		}

		var observer simulator.Observer
		if !noTyping {
			observer = newTypingRenderer(os.Stdout, os.Stderr).observe
		}
		engine, err := a.newEngine(observer, noTyping)
		if err != nil {
			return err
		}
		c := chat.New(a.store, engine, a.logger.Named("chat"))

		switch {
		case newConversation:
			if _, err := a.store.Create(ctx); err != nil {
				return fmt.Errorf("creating conversation: %w", err)
			}
		case conversationID != "":
			conv, err := a.store.FindByPrefix(conversationID)
			if err != nil {
				return fmt.Errorf("finding conversation: %w", err)
			}
			if err := a.store.SetActive(ctx, conv.ID); err != nil {
				return err
			}
		}

		if showRequest {
			if err := printRequest(os.Stderr, a, message); err != nil {
				return err
			}
		}

		ex, err := c.Send(ctx, message)
		if err != nil {
			return err
		}

		if noTyping {
			fmt.Println(ex.Assistant.Content)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "\nConversation: %s\n", ex.ConversationID)
		}
		return nil
	},
}

// printRequest shows the request a real chat completion API would receive
func printRequest(w io.Writer, a *app, message string) error {
	var history []companion.Turn
	if conv, ok := a.store.Active(); ok {
		history = conv.History()
	}
	data, err := json.MarshalIndent(simulator.NewRequest(message, history), "", "  ")
	if err != nil {
		return fmt.Errorf("serializing request: %w", err)
	}
	fmt.Fprintf(w, "Simulated API request (not sent):\n%s\n\n", data)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation ID (short or full UUID, or 'latest')")
	chatCmd.Flags().BoolVarP(&newConversation, "new", "n", false, "Start a new conversation")
	chatCmd.Flags().BoolVar(&showRequest, "show-request", false, "Print the API request a real integration would send")
	chatCmd.Flags().BoolVarP(&noTyping, "no-typing", "q", false, "Skip the thinking pause and typing animation")
}
