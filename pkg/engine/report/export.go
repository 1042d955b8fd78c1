package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
	"gopkg.in/yaml.v3"
)

// NullNode is written in place of a node name for unassigned files.
const NullNode = "NULL"

// ExportItem matches the JSON/YAML structure.
type ExportItem struct {
	File string  `json:"file" yaml:"file"`
	Size int64   `json:"size" yaml:"size"`
	Node *string `json:"node" yaml:"node"`
}

// Items lists one entry per file, in input order.
func Items(files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) []ExportItem {
	items := make([]ExportItem, len(files))
	for i, f := range files {
		items[i] = ExportItem{File: f.Name(), Size: f.Size()}
		if n, ok := p.NodeOf(i); ok {
			name := nodes[n].Name()
			items[i].Node = &name
		}
	}
	return items
}

// WriteText writes "<file> <node|NULL>" lines.
func WriteText(w io.Writer, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	for _, item := range Items(files, nodes, p) {
		node := NullNode
		if item.Node != nil {
			node = *item.Node
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", item.File, node); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes a file,size,node table. Unassigned files have an empty node column.
func WriteCSV(w io.Writer, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"file", "size", "node"}); err != nil {
		return err
	}
	for _, item := range Items(files, nodes, p) {
		node := ""
		if item.Node != nil {
			node = *item.Node
		}
		if err := cw.Write([]string{item.File, strconv.FormatInt(item.Size, 10), node}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the items as an indented JSON array.
func WriteJSON(w io.Writer, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	data, err := json.MarshalIndent(Items(files, nodes, p), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteYAML writes the items as a YAML sequence.
func WriteYAML(w io.Writer, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Items(files, nodes, p)); err != nil {
		return err
	}
	return enc.Close()
}
