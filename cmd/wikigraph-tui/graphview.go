package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/latebit/wikigraph/internal/store"
)

// viewMode distinguishes between the path result and the article tree.
type viewMode int

const (
	viewPath viewMode = iota
	viewGraph
)

// graphListItem is a flattened article for display in the tree view.
type graphListItem struct {
	title string
	depth int
	out   int
}

// flattenGraph lists the articles reachable from root in breadth-first
// order. Depth is the number of hops from root.
func flattenGraph(adj *store.Adjacency, root string) []graphListItem {
	if adj == nil || !adj.Has(root) {
		return nil
	}

	var items []graphListItem
	depth := map[string]int{root: 0}
	queue := []string{root}

	for len(queue) > 0 {
		title := queue[0]
		queue = queue[1:]

		items = append(items, graphListItem{
			title: title,
			depth: depth[title],
			out:   len(adj.Out[title]),
		})

		for _, next := range adj.Out[title] {
			if _, seen := depth[next]; !seen {
				depth[next] = depth[title] + 1
				queue = append(queue, next)
			}
		}
	}

	return items
}

// renderGraphView renders the tree list as a string for the viewport.
func renderGraphView(items []graphListItem, selectedIdx, width int) string {
	if len(items) == 0 {
		return "\n  No articles in graph.\n"
	}

	var b strings.Builder
	b.WriteString("\n  Article Graph\n\n")

	for i, item := range items {
		icon := "●"
		if item.out == 0 {
			icon = "○"
		}

		indent := strings.Repeat("    ", item.depth)

		connector := ""
		if item.depth > 0 {
			connector = "├─ "
		}

		cursor := "  "
		if i == selectedIdx {
			cursor = "> "
		}

		line := fmt.Sprintf("%s%s%s%s %s (%d)", cursor, indent, connector, icon, item.title, item.out)

		if r := []rune(line); width > 5 && len(r) > width-2 {
			line = string(r[:width-5]) + "..."
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString("\n  [f] set from  [t] set to  [p] back to path  [q] quit\n")
	return b.String()
}

// handleGraphKey processes key events when the tree view is active.
func (m model) handleGraphKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "p", "esc":
		m.mode = viewPath
		m.refresh()
		return m, nil
	case "j", "down":
		if m.graphIdx < len(m.graphNodes)-1 {
			m.graphIdx++
			m.refresh()
		}
		return m, nil
	case "k", "up":
		if m.graphIdx > 0 {
			m.graphIdx--
			m.refresh()
		}
		return m, nil
	case "f", "t":
		if m.graphIdx < 0 || m.graphIdx >= len(m.graphNodes) {
			return m, nil
		}
		title := m.graphNodes[m.graphIdx].title
		if msg.String() == "f" {
			m.from.SetValue(title)
		} else {
			m.to.SetValue(title)
		}
		if m.from.Value() != "" && m.to.Value() != "" {
			m.mode = viewPath
			return m, m.doQuery()
		}
		return m, nil
	}
	return m, nil
}
