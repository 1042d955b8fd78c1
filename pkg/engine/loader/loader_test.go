package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DrSkyle/filealloc/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# name size
alpha 10

beta	0
   
gamma   7
#delta 3
`
	records, err := Parse(strings.NewReader(input), "files.txt")
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Name: "alpha", Size: 10},
		{Name: "beta", Size: 0},
		{Name: "gamma", Size: 7},
	}, records)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		reason string
	}{
		{name: "missing size", input: "a 1\nb\n", line: 2, reason: "missing size"},
		{name: "extra tokens", input: "a 1 2\n", line: 1, reason: "unexpected extra fields"},
		{name: "not a number", input: "# c\na ten\n", line: 2, reason: "size is not an integer"},
		{name: "fractional", input: "a 1.5\n", line: 1, reason: "size is not an integer"},
		{name: "negative", input: "a 1\n\nb -4\n", line: 3, reason: "negative size"},
		{name: "indented comment", input: " # not a comment\n", line: 1, reason: "unexpected extra fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "in.txt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "in.txt", perr.Source)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.reason, perr.Reason)
		})
	}
}

func TestParseNodes(t *testing.T) {
	nodes, err := ParseNodes(strings.NewReader("n1 10\nn2 0\n"), "nodes.txt")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "n1", nodes[0].Name())
	assert.Equal(t, int64(10), nodes[0].Capacity())
	assert.Equal(t, int64(0), nodes[0].Occupied())
	assert.Equal(t, int64(0), nodes[1].Capacity())
}

func TestParseFiles_Empty(t *testing.T) {
	files, err := ParseFiles(strings.NewReader("# only comments\n\n"), "files.txt")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "files.txt", []byte("f1 5\nf1 3\n")))
	require.NoError(t, store.Put(ctx, "nodes.txt", []byte("n1 10\n")))

	files, err := LoadFiles(ctx, store, "files.txt")
	require.NoError(t, err)
	require.Len(t, files, 2, "duplicate names are kept")
	assert.Equal(t, int64(3), files[1].Size())

	nodes, err := LoadNodes(ctx, store, "nodes.txt")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	_, err = LoadFiles(ctx, store, "missing.txt")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
