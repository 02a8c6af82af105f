package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const captionHistorySize = 100

type serverMsg serverMessage

type connectionClosedMsg struct{ err error }

type audioDevice interface {
	startCapture(onAudio func(audio []byte)) error
	stopCapture() error
	play(audio []byte) error
}

type styles struct {
	title   lipgloss.Style
	status  lipgloss.Style
	user    lipgloss.Style
	interim lipgloss.Style
	err     lipgloss.Style
	help    lipgloss.Style
}

func newStyles() styles {
	primary := lipgloss.Color("#00ff9f")
	dim := lipgloss.Color("#6e7681")
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1),
		status:  lipgloss.NewStyle().Foreground(primary),
		user:    lipgloss.NewStyle().Bold(true),
		interim: lipgloss.NewStyle().Foreground(dim).Italic(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
		help:    lipgloss.NewStyle().Foreground(dim),
	}
}

// model renders one conversation: live captions in a viewport, the current
// interim transcript underneath, and a status line driven by the gateway's
// listening cues.
type model struct {
	conn     *connection
	audio    audioDevice
	messages <-chan serverMessage

	spinner  spinner.Model
	viewport viewport.Model
	styles   styles
	width    int
	height   int
	ready    bool

	status   string
	captions []string
	interim  string
	reason   string
	err      error
	quitting bool
}

func newModel(conn *connection, audio audioDevice, messages <-chan serverMessage) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		conn:     conn,
		audio:    audio,
		messages: messages,
		spinner:  s,
		styles:   newStyles(),
		status:   "connecting",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.listenServer(), m.spinner.Tick)
}

// listenServer waits for the next gateway message; Update re-arms it after
// every delivery.
func (m model) listenServer() tea.Cmd {
	return func() tea.Msg {
		message, ok := <-m.messages
		if !ok {
			return connectionClosedMsg{}
		}
		return serverMsg(message)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			m.audio.stopCapture()
			m.conn.stop()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width-2, max(1, msg.Height-6))
		m.ready = true
		m.refreshCaptions()

	case serverMsg:
		cmds = append(cmds, m.handleServerMessage(serverMessage(msg))...)
		cmds = append(cmds, m.listenServer())

	case connectionClosedMsg:
		if m.err == nil {
			m.err = msg.err
		}
		m.quitting = true
		m.audio.stopCapture()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleServerMessage(message serverMessage) []tea.Cmd {
	switch message.Type {
	case "start_listening":
		m.status = "listening"
		if err := m.audio.startCapture(func(audio []byte) {
			m.conn.sendAudio(audio)
		}); err != nil {
			m.err = fmt.Errorf("microphone unavailable: %w", err)
			m.quitting = true
			return []tea.Cmd{tea.Quit}
		}

	case "stop_listening":
		m.status = "thinking"
		m.audio.stopCapture()

	case "interim_transcript":
		m.interim = message.Text
		m.refreshCaptions()

	case "final_transcript":
		m.interim = ""
		m.addCaption("You: " + message.Text)

	case "audio_response":
		m.status = "speaking"
		if err := m.audio.play(message.Data); err != nil {
			m.addCaption("(playback failed: " + err.Error() + ")")
		}

	case "conversation_ended":
		m.reason = message.Reason
		m.quitting = true
		m.audio.stopCapture()
		return []tea.Cmd{tea.Quit}

	case "error":
		m.err = fmt.Errorf("%s", message.Error)
		m.quitting = true
		m.audio.stopCapture()
		return []tea.Cmd{tea.Quit}
	}
	return nil
}

func (m *model) addCaption(line string) {
	m.captions = append(m.captions, line)
	if len(m.captions) > captionHistorySize {
		m.captions = m.captions[len(m.captions)-captionHistorySize:]
	}
	m.refreshCaptions()
}

func (m *model) refreshCaptions() {
	if !m.ready {
		return
	}
	content := strings.Join(m.captions, "\n")
	if m.interim != "" {
		if content != "" {
			content += "\n"
		}
		content += m.styles.interim.Render("You: " + m.interim)
	}
	m.viewport.SetContent(wordwrap.String(content, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if m.quitting {
		if m.err != nil {
			return m.styles.err.Render("error: "+m.err.Error()) + "\n"
		}
		if m.reason != "" {
			return fmt.Sprintf("Conversation ended (%s).\n", m.reason)
		}
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Connecting..."
	}

	var status string
	switch m.status {
	case "thinking":
		status = m.spinner.View() + " thinking"
	default:
		status = m.status
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("sonus"))
	b.WriteString(" ")
	b.WriteString(m.styles.status.Render("[" + status + "]"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("q/esc/ctrl+c: hang up"))
	return b.String()
}
