package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/store"
)

func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--home", home, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCurveCommands(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "curve", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "* Calibration\n" {
		t.Fatalf("list = %q", out)
	}
	if _, err := os.Stat(filepath.Join(home, "settings.json")); err != nil {
		t.Fatalf("settings not written: %v", err)
	}

	if _, err := run(t, home, "curve", "set", "Bench", "--pair", "0:1", "--pair", "1:3", "--pair", "2:7"); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err = run(t, home, "curve", "show", "Bench")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "0;1\n1;3\n2;7\n" {
		t.Fatalf("show = %q", out)
	}

	out, err = run(t, home, "curve", "fit", "Bench")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !strings.HasPrefix(out, "y = ") {
		t.Fatalf("fit = %q", out)
	}

	src := filepath.Join(t.TempDir(), "bench.csv")
	if err := os.WriteFile(src, []byte("raw,calibrated\n10,20\n30,40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, home, "curve", "import", "Bench", src); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, _ = run(t, home, "curve", "show", "Bench")
	if out != "10;20\n30;40\n" {
		t.Fatalf("show after import = %q", out)
	}

	dst := filepath.Join(t.TempDir(), "out.txt")
	if _, err := run(t, home, "curve", "export", "Bench", dst); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil || string(b) != "10;20\n30;40\n" {
		t.Fatalf("exported %q, %v", b, err)
	}

	if _, err := run(t, home, "curve", "create", "Bench"); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("create existing: got %v", err)
	}
	if _, err := run(t, home, "curve", "delete", "Bench"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, home, "curve", "show", "Bench"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("show deleted: got %v", err)
	}
}

func TestCurveFitTooFewPoints(t *testing.T) {
	home := t.TempDir()
	if _, err := run(t, home, "curve", "fit", "Calibration"); err == nil {
		t.Fatal("expected an error fitting an empty curve")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, appName+" "+version) {
		t.Fatalf("version = %q", out)
	}
}

func TestParsePairFlags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []models.Pair
		wantErr bool
	}{
		{name: "empty", in: nil, want: []models.Pair{}},
		{name: "two", in: []string{"0:1", " 2.5 : 3 "}, want: []models.Pair{{Raw: 0, Calibrated: 1}, {Raw: 2.5, Calibrated: 3}}},
		{name: "missing colon", in: []string{"1;2"}, wantErr: true},
		{name: "bad raw", in: []string{"a:2"}, wantErr: true},
		{name: "bad calibrated", in: []string{"1:b"}, wantErr: true},
		{name: "nan", in: []string{"NaN:1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePairFlags(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
