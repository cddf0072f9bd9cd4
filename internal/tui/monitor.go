package tui

import (
	"fmt"
	"sync"
	"time"

	"cardiac/internal/display"
	"cardiac/internal/log"
	"cardiac/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94")).
			Bold(true)
)

var quitKeys = key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))

// FrameMsg carries one rendered frame to the program.
type FrameMsg struct {
	Frame  string
	Status string
}

// ErrMsg reports a fault of the monitor; the view shows it until quit.
type ErrMsg struct {
	Err error
}

// MonitorModel is the Bubble Tea model showing the panel frames.
type MonitorModel struct {
	title  string
	frame  string
	status string
	width  int
	height int
	err    error
}

// NewMonitorModel creates the model with a title line.
func NewMonitorModel(title string) MonitorModel {
	return MonitorModel{title: title}
}

// Init implements tea.Model.
func (m MonitorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case FrameMsg:
		m.frame = msg.Frame
		m.status = msg.Status

	case ErrMsg:
		m.err = msg.Err

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m MonitorModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\nPress q to exit.", titleStyle.Render(m.title), errorStyle.Render("Error: "+m.err.Error()))
	}
	if m.frame == "" {
		return "Waiting for the sensor..."
	}

	help := infoStyle.Render("q: Quit")
	if m.status != "" {
		help = infoStyle.Render(m.status + " • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", titleStyle.Render(m.title), m.frame, help)
}

// Display renders every model onto a canvas and ships a frame to the
// terminal program at most once per frame interval. It implements
// display.Display.
type Display struct {
	canvas   *display.Canvas
	renderer *display.Renderer
	program  *tea.Program
	throttle *log.Throttle
	now      func() time.Time

	mu     sync.Mutex
	status func() string
}

var _ display.Display = (*Display)(nil)

// NewDisplay creates the terminal display for a panel of width x height
// pixels. opts are passed to tea.NewProgram.
func NewDisplay(title string, width, height int, frameInterval time.Duration, opts ...tea.ProgramOption) *Display {
	canvas := display.NewCanvas(width, height)
	return &Display{
		canvas:   canvas,
		renderer: display.NewRenderer(canvas),
		program:  tea.NewProgram(NewMonitorModel(title), opts...),
		throttle: log.NewThrottle(frameInterval),
		now:      time.Now,
	}
}

// SetStatus installs a callback producing the status line of each frame.
func (d *Display) SetStatus(status func() string) {
	d.mu.Lock()
	d.status = status
	d.mu.Unlock()
}

// Render implements display.Display. The canvas is redrawn on every call;
// Send blocks until the program takes the frame, and returns at once after
// the program exited.
func (d *Display) Render(m *model.UIModel) error {
	if err := d.renderer.Render(m); err != nil {
		return err
	}
	if !d.throttle.Allow(d.now()) {
		return nil
	}

	msg := FrameMsg{Frame: d.canvas.String()}
	d.mu.Lock()
	if d.status != nil {
		msg.Status = d.status()
	}
	d.mu.Unlock()

	d.program.Send(msg)
	return nil
}

// Fail shows err on screen.
func (d *Display) Fail(err error) {
	d.program.Send(ErrMsg{Err: err})
}

// Run runs the terminal program until the user quits or Quit is called.
func (d *Display) Run() error {
	_, err := d.program.Run()
	return err
}

// Quit stops the program.
func (d *Display) Quit() {
	d.program.Quit()
}
