package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/spf13/cobra"
)

// conversationsCmd represents the conversations command
var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage conversations",
	Long: `Manage conversations including listing, viewing, renaming and deleting them.

Conversations keep the message history across invocations. The active
conversation, marked with '*' in the list, receives 'companion chat' messages.`,
}

// findConversation resolves an ID argument, printing candidates when the
// prefix is ambiguous.
func findConversation(a *app, id string) (conversation.Conversation, error) {
	conv, err := a.store.FindByPrefix(id)
	if err != nil {
		return conv, fmt.Errorf("finding conversation: %w", err)
	}
	return conv, nil
}

// conversationsListCmd represents the conversations list command
var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	Long:  `List all conversations, most recently created first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		convs := a.store.List()
		if len(convs) == 0 {
			fmt.Println("No conversations found.")
			fmt.Println("\nStart one with:")
			fmt.Println("  companion chat \"your message\"")
			return nil
		}

		fmt.Println(conversationTable(convs, a.store.ActiveID()))
		fmt.Println("\nUse 'companion conversations show <id>' to view a conversation.")
		return nil
	},
}

// conversationsShowCmd represents the conversations show command
var conversationsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a conversation and its messages",
	Long: `Show a conversation including all messages.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the
most recently updated conversation. Without an ID the active conversation is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		var conv conversation.Conversation
		if len(args) > 0 {
			conv, err = findConversation(a, args[0])
			if err != nil {
				return err
			}
		} else {
			var ok bool
			conv, ok = a.store.Active()
			if !ok {
				return fmt.Errorf("no active conversation, pass an ID")
			}
		}

		printConversation(os.Stdout, conv)
		fmt.Printf("\nContinue this conversation with:\n  companion chat -c %s \"your message\"\n", conv.GetShortID())
		return nil
	},
}

func printConversation(w io.Writer, conv conversation.Conversation) {
	fmt.Fprintf(w, "Conversation: %s\n", conv.ID)
	fmt.Fprintf(w, "Title: %s\n", conv.Title)
	fmt.Fprintf(w, "Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated: %s\n", conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Messages: %d\n", conv.MessageCount())
	fmt.Fprintln(w)

	if len(conv.Messages) == 0 {
		fmt.Fprintln(w, "No messages in this conversation.")
		return
	}

	for i, msg := range conv.Messages {
		fmt.Fprintf(w, "\n[%d] %s (%s):\n%s\n",
			i+1,
			roleLabel(msg.Role),
			msg.Timestamp.Format("15:04"),
			msg.Content,
		)
	}
}

// conversationsNewCmd represents the conversations new command
var conversationsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new empty conversation and make it active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		id, err := a.store.Create(cmd.Context())
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		fmt.Printf("Conversation %s created and active.\n", id[:8])
		return nil
	},
}

// conversationsUseCmd represents the conversations use command
var conversationsUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a conversation active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		conv, err := findConversation(a, args[0])
		if err != nil {
			return err
		}
		if err := a.store.SetActive(cmd.Context(), conv.ID); err != nil {
			return fmt.Errorf("saving active conversation: %w", err)
		}
		fmt.Printf("Conversation %s (%s) is now active.\n", conv.GetShortID(), conv.Title)
		return nil
	},
}

// conversationsRenameCmd represents the conversations rename command
var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Long: `Rename a conversation. Titles longer than 50 characters are truncated.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		conv, err := findConversation(a, args[0])
		if err != nil {
			return err
		}
		if err := a.store.Rename(cmd.Context(), conv.ID, args[1]); err != nil {
			return fmt.Errorf("renaming conversation: %w", err)
		}

		renamed, _ := a.store.Get(conv.ID)
		fmt.Printf("Conversation %s renamed to \"%s\".\n", conv.GetShortID(), renamed.Title)
		return nil
	},
}

// conversationsDeleteCmd represents the conversations delete command
var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Long: `Delete a conversation permanently.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest".

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		conv, err := findConversation(a, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Are you sure you want to delete conversation %s (%s)?", conv.GetShortID(), conv.Title)) {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		if err := a.store.Delete(cmd.Context(), conv.ID); err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}
		fmt.Printf("Conversation %s deleted successfully.\n", conv.GetShortID())
		return nil
	},
}

// conversationsClearCmd represents the conversations clear command
var conversationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete old conversations",
	Long: `Delete old conversations permanently.

By default, deletes conversations created more than retention_days ago.
Use --before to specify a different date, or --all to delete all conversations.

Warning: This action cannot be undone.

Examples:
  companion conversations clear                      # Older than retention_days (default 30)
  companion conversations clear --before 2024-01-01  # Created before 2024-01-01
  companion conversations clear --before 2024-12     # Created before 2024-12-01
  companion conversations clear --all                # Delete all conversations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")
		yes, _ := cmd.Flags().GetBool("yes")

		if deleteAll && beforeDateStr != "" {
			return fmt.Errorf("cannot specify both --all and --before")
		}

		a, err := openGatedApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		var before time.Time
		var question string
		switch {
		case deleteAll:
			question = "Are you sure you want to delete all %d conversations?"
		case beforeDateStr != "":
			before, err = parseDate(beforeDateStr)
			if err != nil {
				return fmt.Errorf("parsing date: %w", err)
			}
			question = "Are you sure you want to delete %d conversations created before " + before.Format("2006-01-02") + "?"
		default:
			before = time.Now().AddDate(0, 0, -a.cfg.RetentionDays)
			question = fmt.Sprintf("Are you sure you want to delete %%d conversations older than %d days (created before %s)?",
				a.cfg.RetentionDays, before.Format("2006-01-02"))
		}

		count := countCreatedBefore(a.store.List(), before)
		if count == 0 {
			if deleteAll {
				fmt.Println("No conversations to delete.")
			} else {
				fmt.Printf("No conversations found created before %s.\n", before.Format("2006-01-02"))
			}
			return nil
		}

		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf(question, count)) {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		removed, err := a.store.Prune(cmd.Context(), before)
		if err != nil {
			return fmt.Errorf("deleting conversations: %w", err)
		}
		fmt.Printf("Successfully deleted %d conversations.\n", len(removed))
		return nil
	},
}

// countCreatedBefore counts conversations Prune would remove for before
func countCreatedBefore(convs []conversation.Conversation, before time.Time) int {
	if before.IsZero() {
		return len(convs)
	}
	n := 0
	for _, conv := range convs {
		if conv.CreatedAt.Before(before) {
			n++
		}
	}
	return n
}

// confirm asks a y/N question and reports whether the answer was yes
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

// parseDate parses a date string in various formats and returns a time.Time
// Supported formats: YYYY-MM-DD, YYYY-MM, YYYY
func parseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, dateStr, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsNewCmd)
	conversationsCmd.AddCommand(conversationsUseCmd)
	conversationsCmd.AddCommand(conversationsRenameCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	conversationsCmd.AddCommand(conversationsClearCmd)

	conversationsDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")

	conversationsClearCmd.Flags().String("before", "", "Delete only conversations created before this date (format: YYYY-MM-DD, YYYY-MM, or YYYY)")
	conversationsClearCmd.Flags().Bool("all", false, "Delete all conversations (overrides retention_days)")
	conversationsClearCmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")
}
