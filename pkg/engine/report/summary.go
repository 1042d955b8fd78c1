package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Summary aggregates a finished allocation.
type Summary struct {
	Files         int   `json:"files"`
	Nodes         int   `json:"nodes"`
	Assigned      int   `json:"assigned"`
	Unassigned    int   `json:"unassigned"`
	TotalSize     int64 `json:"total_size"`
	UnplacedSize  int64 `json:"unplaced_size"`
	TotalCapacity int64 `json:"total_capacity"`
	Used          int64 `json:"used"`
}

// Summarize computes totals. A nil placement counts every file as unassigned.
func Summarize(files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) Summary {
	s := Summary{Files: len(files), Nodes: len(nodes)}
	for i, f := range files {
		s.TotalSize += f.Size()
		if p != nil {
			if _, ok := p.NodeOf(i); ok {
				s.Assigned++
				continue
			}
		}
		s.Unassigned++
		s.UnplacedSize += f.Size()
	}
	for _, n := range nodes {
		s.TotalCapacity += n.Capacity()
		s.Used += n.Occupied()
	}
	return s
}

// Utilization is Used/TotalCapacity, 0 without capacity.
func (s Summary) Utilization() float64 {
	if s.TotalCapacity == 0 {
		return 0
	}
	return float64(s.Used) / float64(s.TotalCapacity)
}

// Nodes at or above this utilization are highlighted.
const highWater = 0.9

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	fullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0055"))
)

// RenderSummary writes the human-readable listing of files and nodes.
func RenderSummary(w io.Writer, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("List of Files:") + "\n")
	for i, f := range files {
		line := "  " + f.String()
		if p != nil {
			if _, ok := p.NodeOf(i); !ok {
				line = warnStyle.Render(line + " -> " + NullNode)
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("List of Nodes:") + "\n")
	for _, n := range nodes {
		line := "  " + n.String()
		if n.Utilization() >= highWater {
			line = fullStyle.Render(line)
		}
		b.WriteString(line + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("    Stored Files: %d", n.Files())) + "\n")
	}
	b.WriteString("\n")

	s := Summarize(files, nodes, p)
	b.WriteString(fmt.Sprintf("Files: %d  Nodes: %d  Assigned: %d  Unassigned: %d  Utilization: %.1f%%\n",
		s.Files, s.Nodes, s.Assigned, s.Unassigned, s.Utilization()*100))
	b.WriteString(dimStyle.Render(fmt.Sprintf("Capacity: %s  Used: %s  Unplaced: %s",
		humanize.Comma(s.TotalCapacity), humanize.Comma(s.Used), humanize.Comma(s.UnplacedSize))) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
