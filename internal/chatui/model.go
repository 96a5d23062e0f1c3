package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/chatstate"
	"github.com/farmhand-id/platform_be/internal/client"
	"github.com/farmhand-id/platform_be/internal/messaging"
)

const listWidth = 34

type focus int

const (
	focusList focus = iota
	focusInput
)

type (
	tickMsg    time.Time
	loadedMsg  struct{ err error }
	sentMsg    struct{ err error }
	startedMsg struct {
		id  uuid.UUID
		err error
	}
	loggedOutMsg struct{ err error }
)

type Config struct {
	Me           uuid.UUID
	Name         string
	PollInterval time.Duration
	// OnLogout runs after the session is revoked, e.g. to drop the stored
	// token.
	OnLogout func()
}

type Model struct {
	ctx context.Context
	ctl *chatstate.Controller
	cfg Config

	input   textinput.Model
	thread  viewport.Model
	spinner spinner.Model

	focus  focus
	cursor int
	status string
	err    error

	// threadKey changes whenever the visible message list does.
	threadKey string

	width, height int
	quitting      bool
}

func New(ctx context.Context, ctl *chatstate.Controller, cfg Config) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "message, or /start <user id>, /logout"
	input.CharLimit = messaging.DefaultMaxContentLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.header

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	return Model{
		ctx:     ctx,
		ctl:     ctl,
		cfg:     cfg,
		input:   input,
		thread:  viewport.New(0, 0),
		spinner: sp,
		status:  "loading conversations...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reloadCmd(), tickEvery(m.cfg.PollInterval))
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) reloadCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: ctl.Reload(ctx)}
	}
}

func (m Model) sendCmd(content string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		_, err := ctl.Send(ctx, content)
		return sentMsg{err: err}
	}
}

func (m Model) startCmd(target uuid.UUID) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		id, err := ctl.Start(ctx, target)
		return startedMsg{id: id, err: err}
	}
}

func (m Model) markReadCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		ctl.MarkVisibleRead(ctx)
		return nil
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return loggedOutMsg{err: ctl.Logout(ctx)}
	}
}

func (m Model) summaries() []client.ConversationSummary {
	entries := m.ctl.Cache.Conversations()
	out := make([]client.ConversationSummary, len(entries))
	for i, e := range entries {
		out[i] = e.ConversationSummary
	}
	return out
}

func (m *Model) fail(err error) {
	m.err = err
	switch messaging.KindOf(err) {
	case messaging.KindUnauthenticated:
		m.status = "session expired, please sign in again"
	case messaging.KindBadRequest, messaging.KindNotFound:
		m.status = messaging.AsError(err).Public()
	default:
		m.status = "something went wrong, try again"
	}
}

// syncThread refreshes the viewport and jumps to the newest message when
// the visible list changed.
func (m *Model) syncThread() {
	msgs := m.ctl.Cache.Messages()
	key := m.ctl.Cache.ActiveID().String()
	for _, msg := range msgs {
		key += msg.ID.String()[:8]
		if msg.ReadAt != nil {
			key += "r"
		}
	}
	if key == m.threadKey {
		return
	}
	m.threadKey = key
	m.thread.SetContent(RenderThread(msgs, m.cfg.Me, m.thread.Width))
	m.thread.GotoBottom()
}

func (m *Model) resize() {
	threadWidth := m.width - listWidth - 6
	if threadWidth < 20 {
		threadWidth = 20
	}
	m.thread.Width = threadWidth
	m.thread.Height = max(m.height-7, 3)
	m.input.Width = threadWidth - 2
	m.threadKey = ""
	m.syncThread()
}

func (m *Model) selectCursor() tea.Cmd {
	list := m.ctl.Cache.Conversations()
	if len(list) == 0 {
		return nil
	}
	m.cursor = min(max(m.cursor, 0), len(list)-1)
	id := list[m.cursor].ID
	if id == m.ctl.Cache.ActiveID() {
		return nil
	}
	m.ctl.Select(id)
	m.syncThread()
	return m.markReadCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		if !m.ctl.Cache.Loading() && !m.ctl.Cache.Sending() {
			cmds = append(cmds, m.reloadCmd())
		}
		cmds = append(cmds, tickEvery(m.cfg.PollInterval))

	case loadedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		m.err = nil
		m.status = fmt.Sprintf("updated %s", time.Now().Format("15:04:05"))
		m.syncThread()
		if m.focus == focusInput {
			cmds = append(cmds, m.markReadCmd())
		}

	case sentMsg:
		if msg.err != nil {
			m.fail(msg.err)
		} else {
			m.status = "sent"
		}
		m.syncThread()

	case startedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		m.status = "conversation opened"
		m.focus = focusInput
		m.input.Focus()
		for i, e := range m.ctl.Cache.Conversations() {
			if e.ID == msg.id {
				m.cursor = i
			}
		}
		m.syncThread()
		cmds = append(cmds, m.markReadCmd())

	case loggedOutMsg:
		if msg.err != nil {
			m.fail(msg.err)
		}
		if m.cfg.OnLogout != nil {
			m.cfg.OnLogout()
		}
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focus == focusList {
				m.focus = focusInput
				m.input.Focus()
				cmds = append(cmds, m.markReadCmd())
			} else {
				m.focus = focusList
				m.input.Blur()
			}
			return m, tea.Batch(cmds...)
		}

		if m.focus == focusList {
			switch msg.String() {
			case "q", "esc":
				m.quitting = true
				return m, tea.Quit
			case "up", "k":
				m.cursor--
				cmds = append(cmds, m.selectCursor())
			case "down", "j":
				m.cursor++
				cmds = append(cmds, m.selectCursor())
			case "enter":
				cmds = append(cmds, m.selectCursor())
				m.focus = focusInput
				m.input.Focus()
			case "pgup", "pgdown":
				var cmd tea.Cmd
				m.thread, cmd = m.thread.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		if msg.String() == "enter" {
			cmds = append(cmds, m.submit())
			return m, tea.Batch(cmds...)
		}
		if msg.String() == "pgup" || msg.String() == "pgdown" {
			var cmd tea.Cmd
			m.thread, cmd = m.thread.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit handles the input line: slash commands or a message.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	switch {
	case strings.HasPrefix(text, "/start"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		target, err := uuid.Parse(arg)
		if err != nil {
			m.fail(messaging.BadRequest("usage: /start <user id>"))
			return nil
		}
		m.input.SetValue("")
		m.status = "opening conversation..."
		return m.startCmd(target)

	case text == "/logout":
		m.input.SetValue("")
		m.status = "signing out..."
		return m.logoutCmd()
	}

	if !CanSend(text, m.ctl.Cache.Sending()) {
		return nil
	}
	if m.ctl.Cache.ActiveID() == uuid.Nil {
		m.fail(messaging.BadRequest("pick a conversation first"))
		return nil
	}
	m.input.SetValue("")
	m.status = "sending..."
	return m.sendCmd(text)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := styles.header.Render("farmhand chat")
	if m.cfg.Name != "" {
		header += styles.muted.Render(" · " + m.cfg.Name)
	}

	listBody := RenderList(m.summaries(), m.ctl.Cache.ActiveID(), m.cfg.Me, listWidth-4)
	listPanel := styles.panel.Width(listWidth).Height(max(m.height-4, 3)).Render(
		styles.title.Render("Conversations") + "\n" + listBody,
	)

	title := "No conversation selected"
	if e, ok := m.ctl.Cache.Active(); ok {
		title = otherName(e.ConversationSummary, m.cfg.Me)
	}
	send := styles.muted.Render("enter to send")
	if !CanSend(m.input.Value(), m.ctl.Cache.Sending()) {
		send = styles.muted.Render("type a message")
	}
	if m.ctl.Cache.Sending() {
		send = styles.muted.Render("sending...")
	}
	threadPanel := styles.panel.Render(
		styles.title.Render(title) + "\n" +
			m.thread.View() + "\n" +
			m.input.View() + "  " + send,
	)

	status := styles.status.Render(m.status)
	if m.err != nil {
		status = styles.errorMsg.Render(m.status)
	}
	if m.ctl.Cache.Loading() {
		status = m.spinner.View() + " " + status
	}

	help := styles.muted.Render("tab focus · ↑/↓ pick · pgup/pgdown scroll · ctrl+c quit")
	body := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, threadPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status+"  "+help)
}

// Run starts the program on the alternate screen.
func Run(ctx context.Context, ctl *chatstate.Controller, cfg Config) error {
	_, err := tea.NewProgram(New(ctx, ctl, cfg), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
