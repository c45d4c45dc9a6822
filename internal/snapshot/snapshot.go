// Package snapshot reads raw option-chain snapshots from disk. A snapshot is
// either a JSON array of objects (.json) or JSONL with one object per line
// (.jsonl); a .zst suffix on either is decompressed transparently. Rows stay
// loosely typed here — canonicalization belongs to the normalizer.
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNotAnArray is the one fatal input condition: the snapshot's top level is
// not a sequence of objects. Everything below that level degrades gracefully.
var ErrNotAnArray = errors.New("snapshot is not a JSON array of objects")

// Load reads every raw option row from the file at path.
func Load(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	name := path
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening zstd reader: %w", err)
		}
		defer dec.Close()
		reader = dec
		name = strings.TrimSuffix(name, ".zst")
	}

	if strings.HasSuffix(name, ".jsonl") {
		return loadJSONL(reader)
	}
	return loadArray(reader)
}

func loadArray(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnArray, err)
	}
	return rows, nil
}

func loadJSONL(r io.Reader) ([]map[string]any, error) {
	scanner := bufio.NewScanner(r)

	// Large chains can produce long lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var rows []map[string]any
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row map[string]any
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrNotAnArray, lineNum, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	return rows, nil
}
