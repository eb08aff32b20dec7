package cmd

import (
	"fmt"
	"io"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	statusStyle         = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// roleLabel returns the styled speaker label for a role
func roleLabel(role companion.Role) string {
	if role == companion.RoleAssistant {
		return assistantLabelStyle.Render("Assistant")
	}
	return userLabelStyle.Render("You")
}

// typingRenderer prints engine snapshots as a live typing animation.
// Status lines go to status, the reply text goes to out.
type typingRenderer struct {
	out      io.Writer
	status   io.Writer
	shown    int
	thinking bool
}

func newTypingRenderer(out, status io.Writer) *typingRenderer {
	return &typingRenderer{out: out, status: status}
}

func (r *typingRenderer) clearStatus() {
	if r.thinking {
		fmt.Fprint(r.status, "\r\033[K")
		r.thinking = false
	}
}

func (r *typingRenderer) observe(s simulator.Snapshot) {
	switch s.Status {
	case simulator.StatusThinking:
		r.shown = 0
		r.thinking = true
		fmt.Fprint(r.status, statusStyle.Render("Thinking..."))
	case simulator.StatusTyping:
		if r.thinking {
			r.clearStatus()
			fmt.Fprintf(r.out, "%s> ", roleLabel(companion.RoleAssistant))
		}
		runes := []rune(s.Displayed)
		if len(runes) > r.shown {
			fmt.Fprint(r.out, string(runes[r.shown:]))
			r.shown = len(runes)
		}
	case simulator.StatusComplete:
		fmt.Fprintln(r.out)
	case simulator.StatusIdle:
		r.clearStatus()
		if r.shown > 0 {
			fmt.Fprintln(r.out)
			r.shown = 0
		}
	}
}

// conversationTable renders conversations as a bordered table
func conversationTable(convs []conversation.Conversation, activeID string) *table.Table {
	rows := make([][]string, 0, len(convs))
	for _, conv := range convs {
		marker := ""
		if conv.ID == activeID {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			conv.GetShortID(),
			conv.Title,
			conv.CreatedAt.Format("2006-01-02"),
			conv.UpdatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", conv.MessageCount()),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("", "ID", "Title", "Created", "Updated", "Messages").
		Rows(rows...)
}
