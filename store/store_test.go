package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/CK6170/CPVmini-go/models"
)

func newStore(t *testing.T) *CurveStore {
	t.Helper()
	s, err := NewCurveStore(filepath.Join(t.TempDir(), "calibration"))
	if err != nil {
		t.Fatalf("NewCurveStore: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	pairs := []models.Pair{{Raw: 0, Calibrated: 0.1}, {Raw: 12.5, Calibrated: 13.25}, {Raw: 1e-7, Calibrated: -4}}
	if err := s.SaveCurve("Calibration", pairs); err != nil {
		t.Fatalf("SaveCurve: %v", err)
	}
	got, err := s.LoadCurve("Calibration")
	if err != nil {
		t.Fatalf("LoadCurve: %v", err)
	}
	if !reflect.DeepEqual(got, pairs) {
		t.Fatalf("got %v, want %v", got, pairs)
	}

	b, err := os.ReadFile(filepath.Join(s.Dir(), "Calibration.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "0;0.1\n12.5;13.25\n1e-07;-4\n" {
		t.Fatalf("unexpected file content %q", b)
	}
}

func TestCreateListDelete(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"b", "a"} {
		if err := s.CreateCurve(name); err != nil {
			t.Fatalf("CreateCurve(%s): %v", name, err)
		}
	}
	if err := s.CreateCurve("a"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
	if err := s.EnsureCurve("a"); err != nil {
		t.Fatalf("EnsureCurve on existing: %v", err)
	}

	names, err := s.ListCurveNames()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("got %v", names)
	}

	pairs, err := s.LoadCurve("a")
	if err != nil || len(pairs) != 0 {
		t.Fatalf("new curve: pairs=%v err=%v", pairs, err)
	}

	if err := s.DeleteCurve("a"); err != nil {
		t.Fatalf("DeleteCurve: %v", err)
	}
	if err := s.DeleteCurve("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := s.LoadCurve("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestInvalidNames(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"", " ", "../x", "a/b", `a\b`, ".hidden"} {
		if err := s.CreateCurve(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("CreateCurve(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestLoadMalformed(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), "bad.txt"), []byte("1;2\nnope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadCurve("bad"); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestImport(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Pair
		wantErr bool
	}{
		{
			name:    "semicolon",
			content: "1;2\n3;4\n",
			want:    []models.Pair{{Raw: 1, Calibrated: 2}, {Raw: 3, Calibrated: 4}},
		},
		{
			name:    "csv with header and comments",
			content: "raw,calibrated\n# bench 3\n\n1.5, 2.5\n10,20\n",
			want:    []models.Pair{{Raw: 1.5, Calibrated: 2.5}, {Raw: 10, Calibrated: 20}},
		},
		{
			name:    "tabs",
			content: "1\t2\n",
			want:    []models.Pair{{Raw: 1, Calibrated: 2}},
		},
		{name: "three columns", content: "1;2;3\n", wantErr: true},
		{name: "bad value after data", content: "1;2\nx;y\n", wantErr: true},
		{name: "not a number", content: "1;2\nNaN;3\n", wantErr: true},
		{name: "infinite", content: "+Inf;3\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImportFrom(strings.NewReader(tt.content))
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("got %v, want ErrFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ImportFrom: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImportLeavesStoreUnchanged(t *testing.T) {
	s := newStore(t)
	orig := []models.Pair{{Raw: 1, Calibrated: 1}}
	if err := s.SaveCurve("c", orig); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(src, []byte("1;2\nbroken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportFromPath(src); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
	got, err := s.LoadCurve("c")
	if err != nil || !reflect.DeepEqual(got, orig) {
		t.Fatalf("store changed: %v %v", got, err)
	}
}

func TestExportImport(t *testing.T) {
	s := newStore(t)
	pairs := []models.Pair{{Raw: 100, Calibrated: 98.5}, {Raw: 200, Calibrated: 201}}
	if err := s.SaveCurve("x", pairs); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "x.txt")
	if err := s.ExportToPath("x", out); err != nil {
		t.Fatalf("ExportToPath: %v", err)
	}
	got, err := s.ImportFromPath(out)
	if err != nil {
		t.Fatalf("ImportFromPath: %v", err)
	}
	if !reflect.DeepEqual(got, pairs) {
		t.Fatalf("got %v, want %v", got, pairs)
	}
	if err := s.ExportToPath("missing", out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
