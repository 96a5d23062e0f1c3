// Package chatui is the terminal conversation list and chat view.
package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/client"
	"github.com/farmhand-id/platform_be/internal/models"
)

type theme struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	row      lipgloss.Style
	active   lipgloss.Style
	unread   lipgloss.Style
	muted    lipgloss.Style
	mine     lipgloss.Style
	theirs   lipgloss.Style
	status   lipgloss.Style
	errorMsg lipgloss.Style
}

func newTheme() theme {
	green := lipgloss.Color("#7bc96f")
	soil := lipgloss.Color("#a1662f")
	text := lipgloss.Color("#f2efe6")
	muted := lipgloss.Color("#8a8f98")

	return theme{
		header: lipgloss.NewStyle().Bold(true).Foreground(green).Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true).Foreground(text),
		row:      lipgloss.NewStyle().Foreground(text),
		active:   lipgloss.NewStyle().Foreground(lipgloss.Color("#1b1b1b")).Background(green).Bold(true),
		unread:   lipgloss.NewStyle().Foreground(soil).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(muted),
		mine:     lipgloss.NewStyle().Foreground(green).Bold(true),
		theirs:   lipgloss.NewStyle().Foreground(soil).Bold(true),
		status:   lipgloss.NewStyle().Foreground(muted),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")).Bold(true),
	}
}

var styles = newTheme()

// otherName picks the participant that is not me. Anyone who is not the
// farmer sees the farmer.
func otherName(s client.ConversationSummary, me uuid.UUID) string {
	p := s.Farmer
	id := s.FarmerID
	if s.FarmerID == me {
		p, id = s.Laborer, s.LaborerID
	}
	if p != nil && strings.TrimSpace(p.FullName) != "" {
		return p.FullName
	}
	return id.String()[:8]
}

func preview(m *models.Message, width int) string {
	if m == nil {
		return "no messages yet"
	}
	text := strings.Join(strings.Fields(m.Content), " ")
	if m.MessageType == models.MessageTypeImage {
		text = "[image]"
	}
	if width > 1 && len([]rune(text)) > width {
		text = string([]rune(text)[:width-1]) + "…"
	}
	return text
}

// RenderList draws the conversation list in the order given.
func RenderList(list []client.ConversationSummary, activeID, me uuid.UUID, width int) string {
	if len(list) == 0 {
		return styles.muted.Render("no conversations yet")
	}
	if width <= 0 {
		width = 32
	}

	rows := make([]string, 0, len(list))
	for _, s := range list {
		name := otherName(s, me)
		if s.UnreadCount > 0 {
			name = fmt.Sprintf("%s (%d)", name, s.UnreadCount)
		}
		line := name + "\n  " + preview(s.LastMessage, width-2)

		st := styles.row
		switch {
		case s.ID == activeID:
			st = styles.active
		case s.UnreadCount > 0:
			st = styles.unread
		}
		rows = append(rows, st.Width(width).Render(line))
	}
	return strings.Join(rows, "\n")
}

// RenderThread draws messages in array order.
func RenderThread(msgs []models.Message, me uuid.UUID, width int) string {
	if len(msgs) == 0 {
		return styles.muted.Render("say hello")
	}
	if width <= 0 {
		width = 60
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		who, st := "them", styles.theirs
		if m.SenderID == me {
			who, st = "you", styles.mine
		}
		stamp := m.CreatedAt.Local().Format("Jan 2 15:04")
		b.WriteString(st.Render(who) + " " + styles.muted.Render(stamp))
		if m.SenderID == me && m.ReadAt != nil {
			b.WriteString(styles.muted.Render(" · read"))
		}
		b.WriteString("\n")

		body := m.Content
		if m.MessageType == models.MessageTypeImage {
			body = "[image] " + body
		}
		b.WriteString(lipgloss.NewStyle().Width(width).Render(body))
		b.WriteString("\n")
	}
	return b.String()
}

// CanSend reports whether the send control is enabled.
func CanSend(input string, sending bool) bool {
	return !sending && strings.TrimSpace(input) != ""
}
