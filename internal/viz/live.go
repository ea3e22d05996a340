package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/sim"
)

const (
	historyLen = 120
	rotateStep = 0.1
	frameRate  = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// LiveModel steps a simulation once per frame and draws the bodies and the
// upper levels of the octree built for them.
type LiveModel struct {
	sim     *sim.Simulator
	cfg     sim.Config
	initial *sim.System
	sys     *sim.System

	canvas    *Canvas
	camera    *Camera
	showCells bool
	cellDepth int

	step    int
	running bool
	last    sim.StepStats
	drawn   int
	err     error

	buildHist []float64
	depthHist []float64
	energy0   float64
}

// NewLiveModel owns a copy of sys. cfg.Steps of zero runs until quit.
func NewLiveModel(s *sim.Simulator, sys *sim.System, cfg sim.Config) LiveModel {
	m := LiveModel{
		sim:       s,
		cfg:       cfg,
		initial:   sys.Clone(),
		canvas:    NewCanvas(60, 24),
		camera:    NewCamera(cfg.WorldSize),
		showCells: true,
		cellDepth: 3,
		running:   true,
	}
	m.reset()
	return m
}

func (m *LiveModel) reset() {
	m.sys = m.initial.Clone()
	m.sim.Reset()
	m.step = 0
	m.last = sim.StepStats{}
	m.err = nil
	m.buildHist = m.buildHist[:0]
	m.depthHist = m.depthHist[:0]
	m.energy0 = totalEnergy(m.sys, m.cfg)
}

func totalEnergy(sys *sim.System, cfg sim.Config) float64 {
	k, u := sys.Energy(cfg.Params.G, cfg.Params.Softening)
	return k + u
}

func (m LiveModel) Steps() int          { return m.step }
func (m LiveModel) Running() bool       { return m.running }
func (m LiveModel) System() *sim.System { return m.sys }
func (m LiveModel) Err() error          { return m.err }

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance()
			}
		case "r":
			m.reset()
		case "c":
			m.showCells = !m.showCells
		case "]":
			m.cellDepth = min(m.cellDepth+1, octree.DefaultMaxDepth)
		case "[":
			m.cellDepth = max(m.cellDepth-1, 0)
		case "x":
			m.camera.RotateX(rotateStep)
		case "X":
			m.camera.RotateX(-rotateStep)
		case "y":
			m.camera.RotateY(rotateStep)
		case "Y":
			m.camera.RotateY(-rotateStep)
		case "z":
			m.camera.RotateZ(rotateStep)
		case "Z":
			m.camera.RotateZ(-rotateStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-":
			m.camera.ZoomOut()
		}

	case tea.WindowSizeMsg:
		w := max(20, msg.Width-46)
		h := max(8, msg.Height-6)
		m.canvas = NewCanvas(w, h)

	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}

	return m, nil
}

func (m *LiveModel) advance() {
	if m.err != nil || (m.cfg.Steps > 0 && m.step >= m.cfg.Steps) {
		m.running = false
		return
	}
	st, err := m.sim.Step(m.sys, m.cfg, m.step)
	if err != nil {
		m.err = &sim.SimulationError{Step: m.step, Time: st.Time, Wrapped: err}
		m.running = false
		return
	}
	m.last = st
	m.step++
	m.buildHist = pushHistory(m.buildHist, float64(st.BuildTime.Microseconds()))
	m.depthHist = pushHistory(m.depthHist, float64(st.MaxDepth))
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyLen {
		h = h[len(h)-historyLen:]
	}
	return h
}

func (m LiveModel) View() string {
	m.canvas.Clear()
	if tree := m.sim.Tree(); m.showCells && tree != nil {
		tree.Walk(func(v octree.Visit) bool {
			if v.Depth > m.cellDepth || v.InRun {
				return false
			}
			if v.Node.State == octree.Interior || v.Node.State == octree.OverflowList {
				m.camera.DrawCell(m.canvas, v.Center, v.Half)
			}
			return true
		})
	}
	m.drawn = m.camera.DrawPoints(m.canvas, m.sys.Positions)

	canvasView := canvasStyle.Render(strings.TrimSuffix(m.canvas.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.statsView()),
		helpStyle.Render("space pause • n step • r reset • c cells • [ ] depth • x/y/z rotate • +/- zoom • q quit"),
	)
}

func (m LiveModel) statsView() string {
	var b strings.Builder

	status := statusRunning.Render("● RUNNING")
	if !m.running {
		status = statusPaused.Render("■ PAUSED")
	}
	b.WriteString(headerStyle.Render("nbodytree") + "  " + status + "\n\n")

	e := totalEnergy(m.sys, m.cfg)
	drift := 0.0
	if m.energy0 != 0 {
		drift = (e - m.energy0) / m.energy0
	}

	b.WriteString(Fields(
		F("step", "%d", m.step),
		F("time", "%.4f", m.last.Time),
		F("bodies", "%d (%d shown)", m.sys.Len(), m.drawn),
		F("integrator", "%s", m.sim.Integrator().Name()),
		F("backend", "%s", m.sim.Backend().Name()),
		F("nodes", "%d", m.last.Nodes),
		F("depth", "%d", m.last.MaxDepth),
		F("build", "%v", m.last.BuildTime),
		F("force", "%v", m.last.ForceTime),
		F("energy drift", "%+.3e", drift),
	))
	b.WriteByte('\n')

	if m.last.OverflowLists > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d overflow lists, longest %d", m.last.OverflowLists, m.last.LongestRun)))
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteByte('\n')
	}

	if m.cfg.Steps > 0 {
		b.WriteString("\n" + ProgressBar(float64(m.step)/float64(m.cfg.Steps), 30) + "\n")
	}

	if len(m.buildHist) > 1 {
		plot := asciigraph.Plot(m.buildHist,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.Caption("build µs"))
		b.WriteString("\n" + graphStyle.Render(plot) + "\n")
	}
	b.WriteString("\n" + labelStyle.Render("depth ") + Sparkline(m.depthHist, 30))

	return statsStyle.Render(b.String())
}
