package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/models"
)

const curveExt = ".txt"

var (
	ErrNotFound      = errors.New("curve not found")
	ErrAlreadyExists = errors.New("curve already exists")
	ErrFormat        = errors.New("malformed calibration data")
	ErrInvalidName   = errors.New("invalid curve name")
)

// CurveStore keeps one text file per calibration curve under dir.
type CurveStore struct {
	dir string
	mu  sync.RWMutex
}

func NewCurveStore(dir string) (*CurveStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create calibration folder %s", dir)
	}
	return &CurveStore{dir: dir}, nil
}

func (s *CurveStore) Dir() string { return s.dir }

func validName(name string) error {
	if strings.TrimSpace(name) == "" || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return pkgerrors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

func (s *CurveStore) path(name string) string {
	return filepath.Join(s.dir, name+curveExt)
}

// ListCurveNames returns the stored curve names in lexical order.
func (s *CurveStore) ListCurveNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read %s", s.dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != curveExt {
			continue
		}
		name := strings.TrimSuffix(e.Name(), curveExt)
		if validName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *CurveStore) LoadCurve(name string) ([]models.Pair, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrapf(ErrNotFound, "%q", name)
		}
		return nil, pkgerrors.Wrapf(err, "failed to read curve %q", name)
	}
	pairs, err := parsePairs(bytes.NewReader(b), false)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "curve %q", name)
	}
	return pairs, nil
}

// SaveCurve replaces the curve atomically, creating it when absent.
func (s *CurveStore) SaveCurve(name string, pairs []models.Pair) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(name, pairs)
}

func (s *CurveStore) writeLocked(name string, pairs []models.Pair) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temp file for %q", name)
	}
	defer func() {
		if _, err := os.Stat(tmp.Name()); err == nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := writePairs(w, pairs); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to write curve %q", name)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to write curve %q", name)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "failed to close curve %q", name)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace curve %q", name)
	}
	logrus.WithFields(logrus.Fields{"curve": name, "pairs": len(pairs)}).Debug("saved calibration curve")
	return nil
}

// CreateCurve adds an empty curve.
func (s *CurveStore) CreateCurve(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(name)); err == nil {
		return pkgerrors.Wrapf(ErrAlreadyExists, "%q", name)
	}
	return s.writeLocked(name, nil)
}

// EnsureCurve creates name when it does not exist yet.
func (s *CurveStore) EnsureCurve(name string) error {
	err := s.CreateCurve(name)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *CurveStore) DeleteCurve(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.Wrapf(ErrNotFound, "%q", name)
		}
		return pkgerrors.Wrapf(err, "failed to delete curve %q", name)
	}
	return nil
}

// ImportFromPath reads pairs from an external csv/txt file. The store is not touched.
func (s *CurveStore) ImportFromPath(path string) ([]models.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open %s", path)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(f)
	return ImportFrom(f)
}

// ImportFrom parses pairs separated by ';', ',' or tabs. Blank lines, '#' comments and
// a single leading header line are skipped.
func ImportFrom(r io.Reader) ([]models.Pair, error) {
	return parsePairs(r, true)
}

// ExportToPath writes the named curve to path in the store's own format.
func (s *CurveStore) ExportToPath(name, path string) error {
	pairs, err := s.LoadCurve(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", path)
	}
	w := bufio.NewWriter(f)
	if err := writePairs(w, pairs); err != nil {
		_ = f.Close()
		return pkgerrors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return pkgerrors.Wrapf(err, "failed to write %s", path)
	}
	return pkgerrors.Wrapf(f.Close(), "failed to close %s", path)
}

// WriteTo encodes the named curve to w.
func (s *CurveStore) WriteTo(name string, w io.Writer) error {
	pairs, err := s.LoadCurve(name)
	if err != nil {
		return err
	}
	return writePairs(w, pairs)
}

func writePairs(w io.Writer, pairs []models.Pair) error {
	for _, p := range pairs {
		_, err := fmt.Fprintf(w, "%s;%s\n",
			strconv.FormatFloat(p.Raw, 'g', -1, 64),
			strconv.FormatFloat(p.Calibrated, 'g', -1, 64))
		if err != nil {
			return err
		}
	}
	return nil
}

func parsePairs(r io.Reader, lenient bool) ([]models.Pair, error) {
	var pairs []models.Pair
	sc := bufio.NewScanner(r)
	lineNo := 0
	headerSkipped := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || (lenient && strings.HasPrefix(line, "#")) {
			continue
		}
		fields := splitFields(line, lenient)
		if len(fields) != 2 {
			return nil, pkgerrors.Wrapf(ErrFormat, "line %d: expected 2 fields, got %d", lineNo, len(fields))
		}
		raw, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		cal, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err1 != nil || err2 != nil {
			if lenient && !headerSkipped && len(pairs) == 0 {
				headerSkipped = true
				continue
			}
			return nil, pkgerrors.Wrapf(ErrFormat, "line %d: %q", lineNo, line)
		}
		if !finite(raw) || !finite(cal) {
			return nil, pkgerrors.Wrapf(ErrFormat, "line %d: non-finite value", lineNo)
		}
		pairs = append(pairs, models.Pair{Raw: raw, Calibrated: cal})
	}
	if err := sc.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read calibration data")
	}
	return pairs, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func splitFields(line string, lenient bool) []string {
	if !lenient {
		return strings.Split(line, ";")
	}
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ';' || r == ',' || r == '\t'
	})
}
