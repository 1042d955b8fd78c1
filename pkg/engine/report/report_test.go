package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fixture allocates a b c d (5 12 7 30) over n1 n2 (20 15):
// d fits nowhere, b takes idle n1, c and a go to the lighter n2.
func fixture(t *testing.T) ([]tetris.File, []*tetris.Node, *tetris.Placement) {
	t.Helper()
	files := []tetris.File{
		tetris.NewFile("a", 5),
		tetris.NewFile("b", 12),
		tetris.NewFile("c", 7),
		tetris.NewFile("d", 30),
	}
	nodes := []*tetris.Node{
		tetris.NewNode("n1", 20),
		tetris.NewNode("n2", 15),
	}
	return files, nodes, tetris.Allocate(files, nodes)
}

func TestWrite_Golden(t *testing.T) {
	g := goldie.New(t)

	for _, f := range []Format{FormatText, FormatCSV, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			files, nodes, p := fixture(t)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, f, files, nodes, p))
			g.Assert(t, string(f), buf.Bytes())
		})
	}
}

func TestWriteYAML(t *testing.T) {
	files, nodes, p := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, files, nodes, p))

	var got []ExportItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "a", got[0].File)
	require.NotNil(t, got[0].Node)
	assert.Equal(t, "n2", *got[0].Node)
	assert.Nil(t, got[3].Node)
	assert.Contains(t, buf.String(), "node: null")
}

func TestWriteText_NoNodes(t *testing.T) {
	files := []tetris.File{tetris.NewFile("x", 1), tetris.NewFile("x", 2)}
	p := tetris.Allocate(files, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, files, nil, p))
	assert.Equal(t, "x NULL\nx NULL\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":      FormatText,
		"text":  FormatText,
		"CSV":   FormatCSV,
		" json": FormatJSON,
		"yml":   FormatYAML,
		"yaml":  FormatYAML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	err = Write(&bytes.Buffer{}, Format("xml"), nil, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestSummarize(t *testing.T) {
	files, nodes, p := fixture(t)

	s := Summarize(files, nodes, p)
	assert.Equal(t, Summary{
		Files:         4,
		Nodes:         2,
		Assigned:      3,
		Unassigned:    1,
		TotalSize:     54,
		UnplacedSize:  30,
		TotalCapacity: 35,
		Used:          24,
	}, s)
	assert.InDelta(t, 24.0/35.0, s.Utilization(), 1e-9)

	empty := Summarize(files, nil, nil)
	assert.Equal(t, 4, empty.Unassigned)
	assert.Equal(t, 0.0, empty.Utilization())
}

func TestRenderSummary(t *testing.T) {
	files, nodes, p := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, files, nodes, p))

	out := buf.String()
	for _, want := range []string{
		"List of Files:",
		"File 'b' (12)",
		"File 'd' (30) -> NULL",
		"List of Nodes:",
		"Node 'n1' (8/20) [used: 12]",
		"Node 'n2' (3/15) [used: 12]",
		"Stored Files: 2",
		"Assigned: 3  Unassigned: 1",
		"Capacity: 35  Used: 24  Unplaced: 30",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSummary_LargeTotals(t *testing.T) {
	files := []tetris.File{tetris.NewFile("blob", 1500000)}
	nodes := []*tetris.Node{tetris.NewNode("n1", 2000000)}
	p := tetris.Allocate(files, nodes)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, files, nodes, p))
	assert.Contains(t, buf.String(), "Capacity: 2,000,000  Used: 1,500,000  Unplaced: 0")
}
