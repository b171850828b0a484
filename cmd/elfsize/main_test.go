package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func writeELF(t *testing.T, appended []byte) string {
	t.Helper()
	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var buf bytes.Buffer
	hdr := elf.Header32{Ident: ident, Version: uint32(elf.EV_CURRENT), Shoff: 52, Shentsize: 40, Shnum: 1}
	if err := binary.Write(&buf, binary.BigEndian, hdr); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(&buf, binary.BigEndian, elf.Section32{Off: 52}); err != nil {
		t.Fatal(err)
	}
	buf.Write(appended)

	path := filepath.Join(t.TempDir(), "test.elf")
	if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// runApp runs the command line with args and returns stdout, stderr and the
// exit code.
func runApp(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	app.ExitErrHandler = func(*cli.Context, error) {}

	code := 0
	if err := app.Run(append([]string{"elfsize"}, args...)); err != nil {
		var exitErr cli.ExitCoder
		if !errors.As(err, &exitErr) {
			t.Fatalf("unexpected error: %v", err)
		}
		code = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func TestRun(t *testing.T) {
	path := writeELF(t, nil)
	tests := []struct {
		name   string
		args   []string
		stdout string
		code   int
	}{
		{"size", []string{path}, "92\n", 0},
		{"file uri", []string{"file://" + path}, "92\n", 0},
		{"appended data", []string{writeELF(t, []byte("signature"))}, "92\n", 0},
		{"payload", []string{"--payload", writeELF(t, []byte("signature"))}, "92\npayload unknown offset 92 length 9\n", 0},
		{"no argument", nil, "", 1},
		{"two arguments", []string{path, path}, "", 1},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing")}, "", 1},
		{"not an ELF file", []string{writeFile(t, "#!/bin/sh\n")}, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runApp(t, tt.args...)
			if stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if code != 0 && stderr == "" {
				t.Errorf("no diagnostic on stderr")
			}
		})
	}
}

func TestRunDigest(t *testing.T) {
	path := writeELF(t, []byte("appended"))
	stdout, stderr, code := runApp(t, "--digest", "blake2b-256", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || lines[0] != "92" || !strings.HasPrefix(lines[1], "blake2b-256 ") || len(lines[1]) != len("blake2b-256 ")+64 {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, stderr, code = runApp(t, "--digest", "md5", path)
	if code != 1 || !strings.Contains(stderr, "unknown digest algorithm") {
		t.Errorf("md5: exit code %d, stderr %q", code, stderr)
	}
	if stdout != "" {
		t.Errorf("md5: size printed although the run failed: %q", stdout)
	}
}

func TestRunSection(t *testing.T) {
	stdout, stderr, code := runApp(t, "--section", ".upd_info", writeELF(t, nil))
	if code != 1 || !strings.Contains(stderr, "ERROR") {
		t.Errorf("exit code %d, stderr %q", code, stderr)
	}
	if stdout != "" {
		t.Errorf("size printed although the run failed: %q", stdout)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
