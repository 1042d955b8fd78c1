// Package loader parses the "name size" record lists consumed by the allocator.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
	"github.com/DrSkyle/filealloc/pkg/storage"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed input")

// ParseError reports a rejected input line.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Source, e.Line, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrMalformed }

// Record is a single "name size" entry.
type Record struct {
	Name string
	Size int64
}

// Parse reads records from r. Lines starting with '#' and blank lines are
// skipped. Every other line must hold exactly a name and a non-negative
// integer.
func Parse(r io.Reader, source string) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		fail := func(reason string) error {
			return &ParseError{Source: source, Line: line, Text: text, Reason: reason}
		}

		switch {
		case len(fields) == 1:
			return nil, fail("missing size")
		case len(fields) > 2:
			return nil, fail("unexpected extra fields")
		}

		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fail("size is not an integer")
		}
		if size < 0 {
			return nil, fail("negative size")
		}

		records = append(records, Record{Name: fields[0], Size: size})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	return records, nil
}

// ParseFiles parses a file list.
func ParseFiles(r io.Reader, source string) ([]tetris.File, error) {
	records, err := Parse(r, source)
	if err != nil {
		return nil, err
	}
	files := make([]tetris.File, len(records))
	for i, rec := range records {
		files[i] = tetris.NewFile(rec.Name, rec.Size)
	}
	return files, nil
}

// ParseNodes parses a node list. Every node starts empty.
func ParseNodes(r io.Reader, source string) ([]*tetris.Node, error) {
	records, err := Parse(r, source)
	if err != nil {
		return nil, err
	}
	nodes := make([]*tetris.Node, len(records))
	for i, rec := range records {
		nodes[i] = tetris.NewNode(rec.Name, rec.Size)
	}
	return nodes, nil
}

// LoadFiles reads and parses the file list stored under key.
func LoadFiles(ctx context.Context, store storage.BlobStore, key string) ([]tetris.File, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read file list: %w", err)
	}
	return ParseFiles(bytes.NewReader(data), key)
}

// LoadNodes reads and parses the node list stored under key.
func LoadNodes(ctx context.Context, store storage.BlobStore, key string) ([]*tetris.Node, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read node list: %w", err)
	}
	return ParseNodes(bytes.NewReader(data), key)
}
