package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docvec/internal/service"
)

// Ingester is the TUI-facing subset of the ingest service.
type Ingester interface {
	IngestWithProgress(ctx context.Context, name string, data []byte, progress service.ProgressFunc) (service.Result, error)
}

// File is one document queued for ingestion.
type File struct {
	Name string
	Data []byte
}

// Outcome is the result of ingesting one file.
type Outcome struct {
	Name   string
	Result service.Result
	Err    error
}

// ProgressMsg forwards a service progress update to the model.
type ProgressMsg service.Progress

// DoneMsg reports that one file finished, successfully or not.
type DoneMsg Outcome

// FinishedMsg reports that every queued file was processed.
type FinishedMsg struct{}

// Model is the Bubble Tea model rendering ingestion progress.
type Model struct {
	total    int
	bar      progress.Model
	current  service.Progress
	outcomes []Outcome
	cancel   context.CancelFunc
	width    int
	finished bool
	aborted  bool
}

// New creates a model for total files. cancel is called when the user quits early.
func New(total int, cancel context.CancelFunc) Model {
	bar := progress.New(progress.WithDefaultGradient())
	return Model{total: total, bar: bar, cancel: cancel}
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles key, window and ingestion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(20, msg.Width-4)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.aborted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case ProgressMsg:
		m.current = service.Progress(msg)
		return m, nil
	case DoneMsg:
		m.outcomes = append(m.outcomes, Outcome(msg))
		m.current = service.Progress{}
		return m, nil
	case FinishedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the finished files, the current file and its progress bar.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Ingesting %d/%d documents", len(m.outcomes), m.total)))
	b.WriteString("\n")
	for _, o := range m.outcomes {
		if o.Err != nil {
			b.WriteString(failStyle.Render("✗ "+o.Name) + "  " + o.Err.Error())
		} else {
			b.WriteString(okStyle.Render("✓ "+o.Name) + fmt.Sprintf("  %d records  %s", o.Result.Records, o.Result.DocumentID))
		}
		b.WriteString("\n")
	}
	if m.current.Document != "" {
		b.WriteString(fmt.Sprintf("%s  %s\n", m.current.Document, stageStyle.Render(m.current.Stage)))
		b.WriteString(m.bar.ViewAs(fraction(m.current)))
		b.WriteString("\n")
	}
	switch {
	case m.aborted:
		b.WriteString(failStyle.Render("aborted"))
		b.WriteString("\n")
	case m.finished:
		b.WriteString(stageStyle.Render(m.summary()))
		b.WriteString("\n")
	}
	return b.String()
}

// Outcomes returns the results collected so far.
func (m Model) Outcomes() []Outcome { return m.outcomes }

func (m Model) summary() string {
	failed, records := 0, 0
	for _, o := range m.outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		records += o.Result.Records
	}
	return fmt.Sprintf("done: %d records written, %d failed", records, failed)
}

func fraction(p service.Progress) float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(1, float64(p.Done)/float64(p.Total))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	stageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Run ingests files one after another while rendering progress. It returns
// the outcomes of the files that were processed before completion or abort,
// and only after the ingesting goroutine has stopped.
func Run(ctx context.Context, svc Ingester, files []File, opts ...tea.ProgramOption) ([]Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(len(files), cancel), opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, f := range files {
			if ctx.Err() != nil {
				break
			}
			res, err := svc.IngestWithProgress(ctx, f.Name, f.Data, func(pr service.Progress) {
				p.Send(ProgressMsg(pr))
			})
			p.Send(DoneMsg{Name: f.Name, Result: res, Err: err})
		}
		p.Send(FinishedMsg{})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return nil, err
	}
	return final.(Model).Outcomes(), nil
}
