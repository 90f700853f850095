// Command wikigraph-tui is an interactive shortest-path browser over a
// saved article graph.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/latebit/wikigraph/internal/config"
	"github.com/latebit/wikigraph/internal/pathfind"
	"github.com/latebit/wikigraph/internal/store"
)

type focus int

const (
	focusFrom focus = iota
	focusTo
	focusViewport
)

type model struct {
	from       textinput.Model
	to         textinput.Model
	viewport   viewport.Model
	focus      focus
	mode       viewMode
	undirected bool

	file  string
	adj   *store.Adjacency
	stats store.Stats

	// resultUndirected is the direction result was computed with. It may
	// lag undirected while a query is in flight.
	result           *pathfind.Result
	resultUndirected bool

	graphNodes []graphListItem
	graphIdx   int

	width  int
	height int
	ready  bool
}

// queryResult is sent when a path query completes.
type queryResult struct {
	result     pathfind.Result
	undirected bool
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = " "
	ti.CharLimit = 256
	return ti
}

func initialModel(file string, adj *store.Adjacency) model {
	m := model{
		from:  newInput("from article"),
		to:    newInput("to article"),
		focus: focusFrom,
		file:  file,
		adj:   adj,
		stats: adj.Stats(),
	}
	if len(adj.Nodes) > 0 {
		m.graphNodes = flattenGraph(adj, adj.Nodes[0])
	}
	m.from.Focus()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2 // inputs + divider
		footerHeight := 1 // status bar
		viewportHeight := max(m.height-headerHeight-footerHeight, 1)

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		inputWidth := max(m.width/2-16, 10)
		m.from.Width = inputWidth
		m.to.Width = inputWidth
		m.refresh()
		return m, nil

	case queryResult:
		res := msg.result
		m.result = &res
		m.resultUndirected = msg.undirected
		m.mode = viewPath
		m.refresh()
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyTab:
		return m.cycleFocus(), textinput.Blink
	case tea.KeyCtrlU:
		m.undirected = !m.undirected
		if m.from.Value() != "" && m.to.Value() != "" {
			return m, m.doQuery()
		}
		return m, nil
	case tea.KeyCtrlG:
		m.mode = viewGraph
		m.setFocus(focusViewport)
		m.refresh()
		return m, nil
	}

	if m.focus != focusViewport {
		switch msg.Type {
		case tea.KeyEnter:
			if m.from.Value() != "" && m.to.Value() != "" {
				m.setFocus(focusViewport)
				return m, m.doQuery()
			}
			if m.focus == focusFrom {
				m.setFocus(focusTo)
			}
			return m, nil
		case tea.KeyEscape:
			m.setFocus(focusViewport)
			return m, nil
		}
		var cmd tea.Cmd
		if m.focus == focusFrom {
			m.from, cmd = m.from.Update(msg)
		} else {
			m.to, cmd = m.to.Update(msg)
		}
		return m, cmd
	}

	if m.mode == viewGraph {
		return m.handleGraphKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "g":
		m.mode = viewGraph
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) cycleFocus() model {
	m.setFocus((m.focus + 1) % 3)
	return m
}

func (m *model) setFocus(f focus) {
	m.focus = f
	m.from.Blur()
	m.to.Blur()
	switch f {
	case focusFrom:
		m.from.Focus()
	case focusTo:
		m.to.Focus()
	}
}

// refresh re-renders the viewport content for the current mode.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	if m.mode == viewGraph {
		m.viewport.SetContent(renderGraphView(m.graphNodes, m.graphIdx, m.width))
		return
	}
	body := pathMarkdown(m.result, m.resultUndirected)
	rendered, err := renderMarkdown(body, m.width)
	if err != nil {
		m.viewport.SetContent(body)
		return
	}
	m.viewport.SetContent(rendered)
}

func (m model) doQuery() tea.Cmd {
	adj := m.adj
	from := strings.TrimSpace(m.from.Value())
	to := strings.TrimSpace(m.to.Value())
	undirected := m.undirected
	return func() tea.Msg {
		return queryResult{
			result:     pathfind.ShortestPath(adj, from, to, undirected),
			undirected: undirected,
		}
	}
}

// pathMarkdown describes a query result as markdown.
func pathMarkdown(res *pathfind.Result, undirected bool) string {
	if res == nil {
		return "# Shortest path\n\nEnter two article titles and press **Enter**.\n\n" +
			"`tab` switch field · `ctrl+u` toggle direction · `ctrl+g` article tree\n"
	}
	if !res.Found {
		return "# Path not found\n"
	}

	var b strings.Builder
	kind := "directed"
	if undirected {
		kind = "non-directed"
	}
	fmt.Fprintf(&b, "# %s → %s\n\n", res.Path[0], res.Path[len(res.Path)-1])
	for i, title := range res.Path {
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	fmt.Fprintf(&b, "\n**%d hops** (%s)\n", res.Hops(), kind)
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	label := lipgloss.NewStyle().Faint(true)
	active := lipgloss.NewStyle().Bold(true)
	field := func(name string, in textinput.Model, f focus) string {
		s := label.Render(name) + in.View()
		if m.focus == f {
			return active.Render(s)
		}
		return s
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		field(" From:", m.from, focusFrom),
		"  ",
		field("To:", m.to, focusTo),
	)
	b.WriteString(lipgloss.NewStyle().Width(m.width).Render(header))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat("─", m.width))
	b.WriteByte('\n')

	b.WriteString(m.viewport.View())
	b.WriteByte('\n')

	b.WriteString(m.statusBarView())

	return b.String()
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1)

	direction := "directed"
	if m.undirected {
		direction = "non-directed"
	}
	parts := []string{
		m.file,
		fmt.Sprintf("%d articles", m.stats.Nodes),
		fmt.Sprintf("%d links", m.stats.Edges),
		direction,
	}
	if m.result != nil {
		if m.result.Found {
			parts = append(parts, fmt.Sprintf("%d hops", m.result.Hops()))
		} else {
			style = style.Foreground(lipgloss.Color("11"))
			parts = append(parts, "path not found")
		}
	}
	parts = append(parts, fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100)))
	return style.Render(strings.Join(parts, "  "))
}

func renderMarkdown(body string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

func main() {
	configFile := flag.String("config", "", "config file (default: ./wikigraph.toml)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikigraph-tui [-config FILE] [GRAPH_FILE]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(config.New(), *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	file := cfg.GraphFile
	if flag.NArg() > 0 {
		file = flag.Arg(0)
	}

	adj, err := store.New(file, nil).Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println("file not found")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}

	p := tea.NewProgram(
		initialModel(file, adj),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
