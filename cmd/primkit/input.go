package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const envPrimkitOutDir = "PRIMKIT_OUT_DIR"

// stdin is a small seam for tests.
var stdin io.Reader = os.Stdin

// readMatrix loads a dense matrix from path, or from stdin when path is
// empty or "-". JSON input is an array of rows; anything else is read as
// text with one row per line and values separated by commas or spaces.
// Blank lines and lines starting with '#' are skipped.
func readMatrix(path string) ([][]float32, error) {
	var (
		data []byte
		err  error
	)
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var rows [][]float32
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", displayName(path), err)
		}
		return checkRows(path, rows)
	}
	return parseText(path, bytes.NewReader(data))
}

func parseText(path string, r io.Reader) ([][]float32, error) {
	var rows [][]float32
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		row := make([]float32, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", displayName(path), line, err)
			}
			row = append(row, float32(v))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return checkRows(path, rows)
}

func checkRows(path string, rows [][]float32) ([][]float32, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no rows", displayName(path))
	}
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return nil, fmt.Errorf("%s: row %d has %d values, row 0 has %d", displayName(path), i, len(r), len(rows[0]))
		}
	}
	if len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: rows are empty", displayName(path))
	}
	return rows, nil
}

func flattenRows(rows [][]float32) []float32 {
	out := make([]float32, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// resolveOutput picks where a command writes its result file. An explicit
// path wins; otherwise the file is named after base inside $PRIMKIT_OUT_DIR
// or ./out. The parent directory is created. defaulted reports whether the
// path was derived.
func resolveOutput(outFlag, base string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}
	if base == "" || base == "." || strings.ContainsRune(base, filepath.Separator) {
		return "", true, fmt.Errorf("invalid output name: %q", base)
	}
	outDir := strings.TrimSpace(os.Getenv(envPrimkitOutDir))
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}
	outPath := filepath.Join(outDir, base)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}

// writeResult writes v as indented JSON to w.
func writeResult(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// checkRange rejects count flags outside [1, limit] before they size any
// buffer.
func checkRange(name string, v int64, limit int) error {
	if v < 1 || v > int64(limit) {
		return fmt.Errorf("--%s must be in [1, %d], got %d", name, limit, v)
	}
	return nil
}

func parseIntList(name, s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		if v < 1 {
			return nil, fmt.Errorf("--%s: %d must be positive", name, v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("--" + name + " is empty")
	}
	return out, nil
}
