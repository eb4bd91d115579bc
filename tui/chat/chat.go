// Package chat is the terminal chat client. It streams answers from the
// mentoring API and renders them as markdown.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"leetmentor/client"
	"leetmentor/llm"
	"leetmentor/pubsub"
	"leetmentor/rag"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the bubbletea model for the chat screen. Stream events arrive
// through the broker so the network reader never touches the model
// directly.
type Model struct {
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	api     *client.Client
	problem llm.Problem
	history []llm.Message

	broker *pubsub.Broker[rag.Event]
	sub    <-chan pubsub.Event[rag.Event]
	ctx    context.Context

	transcript []string
	streaming  bool
	// partial accumulates streamed tokens. Kept as a plain string because
	// bubbletea copies the model by value between updates.
	partial string
	width   int
	height  int
}

// InitialModel builds the chat model for one problem.
func InitialModel(api *client.Client, problem llm.Problem) Model {
	ctx := context.Background()
	broker := pubsub.NewBroker[rag.Event]()

	input := textarea.New()
	input.Placeholder = "Ask about " + problem.Title + "..."
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return Model{
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		renderer: renderer,
		api:      api,
		problem:  problem,
		broker:   broker,
		sub:      broker.Subscribe(ctx),
		ctx:      ctx,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the broker subscription and forwards one event
// into the update loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

// ask streams one question in the background, publishing every event to
// the broker.
func (m Model) ask(question string) {
	req := llm.ChatRequest{
		Question: question,
		Problem:  m.problem,
		History:  append([]llm.Message(nil), m.history...),
	}
	go func() {
		err := m.api.AskStream(m.ctx, req, func(event rag.Event) error {
			m.broker.Publish(pubsub.ProgressEvent, event)
			return nil
		})
		if err != nil {
			m.broker.Publish(pubsub.FailedEvent, rag.ErrorEvent(err))
		}
	}()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.input.Height() + 1
		m.viewport.Width = m.width
		m.viewport.Height = m.height - inputHeight - 2
		m.input.SetWidth(m.width)
		m.refreshViewport()

	case pubsub.Event[rag.Event]:
		m = m.applyEvent(msg)
		cmds = append(cmds, m.waitForEvent())

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.broker.Shutdown()
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question != "" && !m.streaming {
				m.transcript = append(m.transcript, userStyle.Render("You")+"\n"+question)
				m.history = append(m.history, llm.Message{Role: llm.RoleUser, Content: question})
				m.input.Reset()
				m.streaming = true
				m.partial = ""
				m.refreshViewport()
				m.ask(question)
				cmds = append(cmds, m.spinner.Tick)
			}
			return m, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyEvent folds one stream event into the transcript.
func (m Model) applyEvent(event pubsub.Event[rag.Event]) Model {
	record := event.Payload

	switch record.Type {
	case rag.EventCached:
		if record.Response != nil {
			m = m.finishAnswer(record.Response.Answer, record.Response.Summary)
		}
	case rag.EventSources:
		// Sources stay out of the transcript; the summary carries the
		// takeaways.
	case rag.EventToken:
		m.partial += record.Token
		m.refreshViewport()
	case rag.EventSummary:
		// Folded into the end event's response.
	case rag.EventEnd:
		if record.Response != nil {
			m = m.finishAnswer(record.Response.Answer, record.Response.Summary)
		}
	case rag.EventError:
		m.streaming = false
		m.partial = ""
		m.transcript = append(m.transcript, errorStyle.Render("Error: "+record.Error))
		m.refreshViewport()
	}

	if event.Type == pubsub.FailedEvent && record.Type != rag.EventError {
		m.streaming = false
		m.transcript = append(m.transcript, errorStyle.Render("Error: "+record.Error))
		m.refreshViewport()
	}
	return m
}

// finishAnswer closes out the in-flight answer with its final text.
func (m Model) finishAnswer(answer, summary string) Model {
	m.streaming = false
	m.partial = ""
	m.history = append(m.history, llm.Message{Role: llm.RoleAssistant, Content: answer})

	rendered := answer
	if m.renderer != nil {
		if out, err := m.renderer.Render(answer); err == nil {
			rendered = strings.TrimSpace(out)
		}
	}

	entry := assistantStyle.Render("Mentor") + "\n" + rendered
	if summary != "" {
		entry += "\n" + summaryStyle.Render(summary)
	}
	m.transcript = append(m.transcript, entry)
	m.refreshViewport()
	return m
}

// refreshViewport rebuilds the viewport content and scrolls to the end.
func (m *Model) refreshViewport() {
	parts := append([]string(nil), m.transcript...)
	if m.streaming {
		streamingEntry := assistantStyle.Render("Mentor") + "\n" + m.partial
		parts = append(parts, streamingEntry)
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	status := ""
	if m.streaming {
		status = m.spinner.View() + " thinking..."
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		status,
		m.input.View(),
	)
}
