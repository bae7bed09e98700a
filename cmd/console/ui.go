package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/redbutton-labs/persuasion-engine/internal/handlers"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
	"github.com/redbutton-labs/persuasion-engine/pkg/persona"
)

const PlaceHolderText = "Make your pitch..."

type chatLine struct {
	role    string // "user" or "agent"
	content string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	score        *handlers.ScoreResponse
	lastChange   int
	attempts     int
	history      []chatLine
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type interactResponseMsg struct {
	result *game.InteractionResult
	err    error
}

type scoreMsg struct {
	score *handlers.ScoreResponse
	err   error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // gold
			Bold(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	scoreUpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")) // green

	scoreDownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			Align(lipgloss.Center)
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, score *handlers.ScoreResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		score:        score,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("THE GAME") + "\n\n")

	content.WriteString("Player:\n")
	player := m.config.PlayerID
	if len(player) > 12 {
		player = player[:12] + "..."
	}
	content.WriteString(player + "\n\n")

	content.WriteString("Persuasion Score:\n")
	scoreLine := fmt.Sprintf("%d / %d", m.score.Score, game.MaxScore)
	switch {
	case m.lastChange > 0:
		scoreLine += scoreUpStyle.Render(fmt.Sprintf("  (+%d)", m.lastChange))
	case m.lastChange < 0:
		scoreLine += scoreDownStyle.Render(fmt.Sprintf("  (%d)", m.lastChange))
	}
	content.WriteString(scoreLine + "\n\n")

	content.WriteString("Button:\n")
	switch m.score.Gate {
	case game.GateUnlocked:
		content.WriteString("UNLOCKED!\n\n")
	case game.GateArmed:
		content.WriteString("armed... one more push\n\n")
	default:
		content.WriteString("locked\n\n")
	}

	content.WriteString("Attempts:\n")
	content.WriteString(fmt.Sprintf("%d this session\n\n", m.attempts))

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /score: Refresh score\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("PERSUASION ENGINE") + "\n\n")
	content.WriteString(fmt.Sprintf("Convince %s to press the button. Reach %d. Twice.\n\n", persona.AgentName, game.MaxScore))
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, line := range m.history {
		switch line.role {
		case "agent":
			prefix := agentStyle.Render(persona.AgentName + ": ")
			content.WriteString(prefix + wordwrap.String(line.content, max(chatWidth-len(persona.AgentName)-2, 10)) + "\n\n")
		case "user":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(line.content, max(chatWidth-6, 10)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.history = append(m.history, chatLine{role: "user", content: input})
			m.attempts++
			m.writeChatContent()

			return m, tea.Batch(m.sendMessage(input), progressTick())
		}

	case interactResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.history = append(m.history, chatLine{role: "agent", content: msg.result.Message})
			m.lastChange = msg.result.ScoreChange
			m.score.Score = msg.result.Score
			if msg.result.GameWon {
				m.score.Gate = game.GateUnlocked
				m.score.GameWon = true
			} else if msg.result.ThresholdReached {
				m.score.Gate = game.GateArmed
			}
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshScore()

	case scoreMsg:
		if msg.err == nil && msg.score != nil {
			m.score = msg.score
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /score - Refresh your score from the server
• Ctrl+C - Quit

How to play:
• Type persuasion attempts and press Enter
• Threats tank your score instantly
• Reach the top score twice to unlock the button
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/score":
		return m, m.refreshScore()
	}

	return m, nil
}

func (m ConsoleUI) sendMessage(message string) tea.Cmd {
	return func() tea.Msg {
		result, err := sendInteraction(m.client, m.config, message)
		return interactResponseMsg{result, err}
	}
}

func (m ConsoleUI) refreshScore() tea.Cmd {
	return func() tea.Msg {
		score, err := getScore(m.client, m.config.APIBaseURL, m.config.PlayerID)
		return scoreMsg{score, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(msg.String()) {
		case "y", "enter", "ctrl+c":
			return m, tea.Quit
		case "n", "esc":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

func (m ConsoleUI) renderQuitModal() string {
	content := modalTitleStyle.Render("Leave the table?") + "\n\n" +
		"Your score is saved on the server.\n\n" +
		"y / Enter - quit    n / Esc - keep playing"

	modal := modalStyle.Render(content)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return modal
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return agentStyle.Render(persona.AgentName+" is thinking ") + bar.String()
}

func progressTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
