package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"
)

// ErrMalformedEdgeList is returned when an edge list line cannot be parsed
var ErrMalformedEdgeList = errors.New("malformed edge list")

// LoadEdgeList reads a whitespace separated edge list.
//
// Each line holds "source target [weight]" using external int64 ids.
// Blank lines and lines starting with '#' are skipped. A single id on a
// line declares an isolated node.
func LoadEdgeList(r io.Reader) (*AdjacencyGraph, error) {
	b := NewBuilder()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) > 3 {
			return nil, fmt.Errorf("%w: line %d: expected at most 3 fields, got %d", ErrMalformedEdgeList, line, len(fields))
		}

		from, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: source id: %v", ErrMalformedEdgeList, line, err)
		}
		if len(fields) == 1 {
			b.AddNode(from)
			continue
		}

		to, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: target id: %v", ErrMalformedEdgeList, line, err)
		}
		if len(fields) == 2 {
			b.AddRelationship(from, to)
			continue
		}

		weight, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: weight: %v", ErrMalformedEdgeList, line, err)
		}
		b.AddWeightedRelationship(from, to, weight)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}

	return b.Build(), nil
}

// LoadEdgeListFile memory-maps an edge list file and parses it
func LoadEdgeListFile(path string) (*AdjacencyGraph, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	return LoadEdgeList(io.NewSectionReader(reader, 0, int64(reader.Len())))
}
