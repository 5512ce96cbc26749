package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-client/pkg/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	dmStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// InspectUI is the BubbleTea model: adventure log on the left, slice
// summary on the right. Read-only.
type InspectUI struct {
	gs *state.GameState

	logViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	status       string
}

func NewInspectUI(gs *state.GameState) InspectUI {
	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	return InspectUI{
		gs:           gs,
		logViewport:  logVp,
		metaViewport: metaVp,
	}
}

func (m InspectUI) Init() tea.Cmd {
	return nil
}

func (m InspectUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		logCmd  tea.Cmd
		metaCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.7) - 2
		metaWidth := m.width - logWidth - 4

		m.logViewport.Width = logWidth
		m.logViewport.Height = m.height - 3
		m.metaViewport.Width = metaWidth
		m.metaViewport.Height = m.height - 3

		m.writeLogContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			if m.gs.Session.SessionID != "" {
				if err := clipboard.WriteAll(m.gs.Session.SessionID); err != nil {
					m.status = "Copy failed"
				} else {
					m.status = "Session id copied"
				}
			}
			return m, nil
		case "g":
			m.logViewport.GotoTop()
			return m, nil
		case "G":
			m.logViewport.GotoBottom()
			return m, nil
		}
	}

	m.logViewport, logCmd = m.logViewport.Update(msg)
	m.metaViewport, metaCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(logCmd, metaCmd)
}

func (m *InspectUI) writeLogContent() {
	width := m.logViewport.Width - 4

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE LOG") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-2, 1))) + "\n\n")

	msgs := m.gs.Messages.All()
	if len(msgs) == 0 {
		content.WriteString("No messages.\n")
	}
	for _, msg := range msgs {
		switch msg.Type {
		case state.MessageTypePlayer:
			content.WriteString(playerStyle.Render("You: ") + wordwrap.String(msg.Text, width) + "\n\n")
		case state.MessageTypeSystem:
			content.WriteString(systemStyle.Render(wordwrap.String(msg.Text, width)) + "\n\n")
		default:
			content.WriteString(dmStyle.Render(wordwrap.String(msg.Text, width)) + "\n\n")
		}
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func (m *InspectUI) writeMetadata() string {
	gs := m.gs
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME STATE") + "\n\n")

	content.WriteString(labelStyle.Render("Session") + "\n")
	content.WriteString(shortID(gs.Session.SessionID) + "\n")
	content.WriteString("Campaign: " + shortID(gs.Session.CampaignID) + "\n\n")

	content.WriteString(labelStyle.Render("Character") + "\n")
	if c := gs.Character; c != nil {
		content.WriteString(fmt.Sprintf("%s\nLevel %d %s %s\n", c.Name, c.Level, c.Race, c.Class))
		content.WriteString(fmt.Sprintf("HP %d/%d  AC %d\n", c.HP.Current, c.HP.Max, c.AC))
		content.WriteString(fmt.Sprintf("XP %d/%d\n\n", c.XP.Current, c.XP.ToNext))
	} else {
		content.WriteString("None\n\n")
	}

	content.WriteString(labelStyle.Render("World") + "\n")
	if ws := gs.World.State; ws != nil && ws.CurrentLocation != "" {
		content.WriteString(ws.CurrentLocation + "\n\n")
	} else {
		content.WriteString("Unknown\n\n")
	}

	content.WriteString(labelStyle.Render("Quests") + "\n")
	content.WriteString(fmt.Sprintf("%d active, %d completed\n\n",
		len(gs.Quests.ActiveIDs), len(gs.Quests.CompletedIDs)))

	content.WriteString(labelStyle.Render("Messages") + "\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", gs.Messages.Count()))

	content.WriteString(labelStyle.Render("Derived") + "\n")
	content.WriteString(fmt.Sprintf("Ready: %v\nIn combat: %v\nPending check: %v\n\n",
		gs.Derived.IsGameReady, gs.Derived.IsInCombat, gs.Derived.HasPendingCheck))

	content.WriteString(labelStyle.Render("Keys") + "\n")
	content.WriteString("• q: quit\n• c: copy session id\n• g/G: top/bottom\n")

	return content.String()
}

func (m InspectUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().PaddingRight(2).Render(m.logViewport.View()),
		m.metaViewport.View())

	status := ""
	if m.status != "" {
		status = statusStyle.Render(m.status)
	}
	return panels + "\n" + status
}

func shortID(id string) string {
	if id == "" {
		return "None"
	}
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}
