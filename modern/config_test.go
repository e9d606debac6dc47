package modern

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUserFolder(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "home")
	got, err := UserFolder(base)
	if err != nil {
		t.Fatal(err)
	}
	if st, err := os.Stat(got); err != nil || !st.IsDir() {
		t.Fatalf("folder not created: %v", err)
	}
	if SettingsPath(got) != filepath.Join(base, "settings.json") || CurvesDir(got) != filepath.Join(base, "calibration") {
		t.Fatal("unexpected derived paths")
	}
}

func TestPrepareLogFile(t *testing.T) {
	tests := []struct {
		name     string
		existing int
		wantKeep bool
	}{
		{"small log kept", 10, true},
		{"oversized log dropped", MaxLogSize + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "log.txt")
			if err := os.WriteFile(path, make([]byte, tt.existing), 0o644); err != nil {
				t.Fatal(err)
			}
			f, err := PrepareLogFile(dir)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := f.WriteString("x"); err != nil {
				t.Fatal(err)
			}
			_ = f.Close()

			st, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			want := int64(1)
			if tt.wantKeep {
				want = int64(tt.existing) + 1
			}
			if st.Size() != want {
				t.Fatalf("size = %d, want %d", st.Size(), want)
			}
		})
	}
}
