package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestReadMatrix(t *testing.T) {
	t.Run("json rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m.json")
		if err := os.WriteFile(path, []byte(" [[1, 2.5], [3, -4]]\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		rows, err := readMatrix(path)
		if err != nil {
			t.Fatalf("readMatrix returned error: %v", err)
		}
		if len(rows) != 2 || rows[0][1] != 2.5 || rows[1][1] != -4 {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("delimited text skips comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m.csv")
		body := "# header\n1,2,3\n\n4 5\t6\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		rows, err := readMatrix(path)
		if err != nil {
			t.Fatalf("readMatrix returned error: %v", err)
		}
		if len(rows) != 2 || rows[1][2] != 6 {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		old := stdin
		stdin = strings.NewReader("7 8\n")
		t.Cleanup(func() { stdin = old })

		rows, err := readMatrix("-")
		if err != nil {
			t.Fatalf("readMatrix returned error: %v", err)
		}
		if len(rows) != 1 || rows[0][0] != 7 {
			t.Fatalf("unexpected rows: %v", rows)
		}
	})

	t.Run("ragged rows fail", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m.txt")
		if err := os.WriteFile(path, []byte("1 2\n3\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := readMatrix(path); err == nil || !strings.Contains(err.Error(), "row 1") {
			t.Fatalf("expected ragged row error, got %v", err)
		}
	})

	t.Run("bad number reports line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m.txt")
		if err := os.WriteFile(path, []byte("1 2\n3 x\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := readMatrix(path); err == nil || !strings.Contains(err.Error(), ":2:") {
			t.Fatalf("expected line number in error, got %v", err)
		}
	})

	t.Run("empty input fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "m.txt")
		if err := os.WriteFile(path, []byte("# nothing\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := readMatrix(path); err == nil {
			t.Fatalf("expected error for empty input")
		}
	})
}

func TestResolveOutput(t *testing.T) {
	t.Run("explicit output wins", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "nested", "report.json")

		got, defaulted, err := resolveOutput(outPath, "ignored.json")
		if err != nil {
			t.Fatalf("resolveOutput returned error: %v", err)
		}
		if defaulted {
			t.Fatalf("expected explicit output to not be defaulted")
		}
		if got != filepath.Clean(outPath) {
			t.Fatalf("unexpected output path: got %q want %q", got, filepath.Clean(outPath))
		}
		if _, err := os.Stat(filepath.Dir(got)); err != nil {
			t.Fatalf("expected output directory to exist: %v", err)
		}
	})

	t.Run("env output dir overrides default", func(t *testing.T) {
		envDir := filepath.Join(t.TempDir(), "bench-out")
		t.Setenv(envPrimkitOutDir, envDir)

		got, defaulted, err := resolveOutput("", "bench.json")
		if err != nil {
			t.Fatalf("resolveOutput returned error: %v", err)
		}
		if !defaulted {
			t.Fatalf("expected output to be defaulted")
		}
		if want := filepath.Join(envDir, "bench.json"); got != want {
			t.Fatalf("unexpected output path: got %q want %q", got, want)
		}
	})

	t.Run("default output dir is ./out", func(t *testing.T) {
		t.Setenv(envPrimkitOutDir, "")
		t.Chdir(t.TempDir())

		got, defaulted, err := resolveOutput("", "bench.json")
		if err != nil {
			t.Fatalf("resolveOutput returned error: %v", err)
		}
		if !defaulted {
			t.Fatalf("expected output to be defaulted")
		}
		if want := filepath.Join(".", "out", "bench.json"); got != want {
			t.Fatalf("unexpected output path: got %q want %q", got, want)
		}
		if _, err := os.Stat(filepath.Join(".", "out")); err != nil {
			t.Fatalf("expected ./out to exist: %v", err)
		}
	})

	t.Run("derived name must be a plain file name", func(t *testing.T) {
		if _, _, err := resolveOutput("", ""); err == nil {
			t.Fatalf("expected error for empty name")
		}
		if _, _, err := resolveOutput("", filepath.Join("a", "b.json")); err == nil {
			t.Fatalf("expected error for nested name")
		}
	})
}

func TestParseIntList(t *testing.T) {
	got, err := parseIntList("k", " 1, 32 ,256,")
	if err != nil {
		t.Fatalf("parseIntList returned error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 32 || got[2] != 256 {
		t.Fatalf("unexpected list: %v", got)
	}
	for _, bad := range []string{"", "1,x", "0", "-3"} {
		if _, err := parseIntList("k", bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCheckRange(t *testing.T) {
	if err := checkRange("k", 3, 5); err != nil {
		t.Fatalf("in range: %v", err)
	}
	for _, v := range []int64{0, -1, 6, 1 << 40} {
		if err := checkRange("k", v, 5); err == nil {
			t.Fatalf("expected error for %d", v)
		}
	}
}

func TestSelectRejectsBadKBeforeAllocating(t *testing.T) {
	for _, k := range []string{"-1", "0", "6", "1099511627776"} {
		old := stdin
		stdin = strings.NewReader("[[5,3,1,4,2]]")

		cmd := selectCmd()
		cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
		err := cmd.Run(context.Background(), []string{"select", "--k", k})
		stdin = old
		if err == nil || !strings.Contains(err.Error(), "--k must be in [1, 5]") {
			t.Fatalf("k=%s: got %v", k, err)
		}
	}
}
