package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
)

// ErrUnknownFormat is returned for output formats other than the ones below.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a placement is written.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatCSV, FormatJSON, FormatYAML}

// ParseFormat accepts a format name, case-insensitively. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Write renders the placement in format f.
func Write(w io.Writer, f Format, files []tetris.File, nodes []*tetris.Node, p *tetris.Placement) error {
	switch f {
	case FormatText:
		return WriteText(w, files, nodes, p)
	case FormatCSV:
		return WriteCSV(w, files, nodes, p)
	case FormatJSON:
		return WriteJSON(w, files, nodes, p)
	case FormatYAML:
		return WriteYAML(w, files, nodes, p)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
