package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/psiviz/internal/wave"
)

// Source resolves a run identifier to a validated record.
type Source interface {
	Load(ctx context.Context, runID int) (*wave.Record, error)
}

// Store keeps runs as directories of snapshot files under a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the content of run.json.
type RunMetadata struct {
	ID            int       `json:"id"`
	FormatVersion string    `json:"format_version"`
	Created       time.Time `json:"created"`
	Description   string    `json:"description,omitempty"`
	NX            int       `json:"n_dim_x"`
	NY            int       `json:"n_dim_y"`
	XMin          float64   `json:"x_min"`
	XMax          float64   `json:"x_max"`
	YMin          float64   `json:"y_min"`
	YMax          float64   `json:"y_max"`
	Steps         int       `json:"steps"`
}

const (
	metadataFile   = "run.json"
	snapshotPrefix = "psi_"
	snapshotSuffix = ".bin"
)

func (s *Store) runDir(runID int) string {
	return filepath.Join(s.baseDir, strconv.Itoa(runID))
}

func snapshotName(k int) string {
	return fmt.Sprintf("%s%06d%s", snapshotPrefix, k, snapshotSuffix)
}

// Save writes rec as run runID, replacing any snapshots already there.
func (s *Store) Save(runID int, rec *wave.Record, description string) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	runDir := s.runDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	old, err := filepath.Glob(filepath.Join(runDir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		return err
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil {
			return err
		}
	}

	for k := range rec.Times {
		if err := writeSnapshotFile(filepath.Join(runDir, snapshotName(k)), rec, k); err != nil {
			return fmt.Errorf("snapshot %d: %w", k, err)
		}
	}

	meta := RunMetadata{
		ID:            runID,
		FormatVersion: FormatVersion,
		Created:       time.Now().UTC(),
		Description:   description,
		NX:            rec.NX,
		NY:            rec.NY,
		XMin:          rec.XMin,
		XMax:          rec.XMax,
		YMin:          rec.YMin,
		YMax:          rec.YMax,
		Steps:         rec.Steps(),
	}

	return writeMetadata(filepath.Join(runDir, metadataFile), &meta)
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeSnapshotFile(path string, rec *wave.Record, k int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeSnapshot(w, rec, k); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the metadata of every readable run, ordered by identifier.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		meta, err := s.Metadata(id)
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

// Metadata reads run.json of a run.
func (s *Store) Metadata(runID int) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: run %d: %v", wave.ErrDataUnavailable, runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: run %d metadata: %v", wave.ErrMalformedDataset, runID, err)
	}
	if err := checkFormat(meta.FormatVersion); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	return &meta, nil
}

// Load reads every snapshot of a run and validates the assembled record.
func (s *Store) Load(ctx context.Context, runID int) (*wave.Record, error) {
	meta, err := s.Metadata(runID)
	if err != nil {
		return nil, err
	}

	paths, err := s.snapshotPaths(runID)
	if err != nil {
		return nil, err
	}
	if len(paths) != meta.Steps {
		return nil, fmt.Errorf("%w: run %d has %d snapshots, metadata says %d", wave.ErrMalformedDataset, runID, len(paths), meta.Steps)
	}

	rec := &wave.Record{
		Times: make([]float64, 0, len(paths)),
		Psi:   make([][]complex128, 0, len(paths)),
		XMin:  meta.XMin,
		XMax:  meta.XMax,
		YMin:  meta.YMin,
		YMax:  meta.YMax,
		NX:    meta.NX,
		NY:    meta.NY,
	}

	for k, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: run %d snapshot %d: %v", wave.ErrDataUnavailable, runID, k, err)
		}
		hdr, psi, err := readSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("run %d snapshot %d: %w", runID, k, err)
		}
		if int(hdr.NDimX) != meta.NX || int(hdr.NDimY) != meta.NY ||
			hdr.XMin != meta.XMin || hdr.XMax != meta.XMax ||
			hdr.YMin != meta.YMin || hdr.YMax != meta.YMax {
			return nil, fmt.Errorf("%w: run %d snapshot %d header disagrees with run metadata", wave.ErrMalformedDataset, runID, k)
		}

		rec.Times = append(rec.Times, hdr.T)
		rec.Psi = append(rec.Psi, psi)
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	return rec, nil
}

// snapshotPaths returns the snapshot files of a run ordered by index. The
// indices must run 0..n-1 without gaps.
func (s *Store) snapshotPaths(runID int) ([]string, error) {
	runDir := s.runDir(runID)
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("%w: run %d: %v", wave.ErrDataUnavailable, runID, err)
	}

	type indexed struct {
		k    int
		path string
	}
	found := make([]indexed, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		k, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix))
		if err != nil {
			return nil, fmt.Errorf("%w: run %d: unexpected snapshot file %s", wave.ErrMalformedDataset, runID, name)
		}
		found = append(found, indexed{k: k, path: filepath.Join(runDir, name)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].k < found[j].k })

	paths := make([]string, len(found))
	for i, f := range found {
		if f.k != i {
			return nil, fmt.Errorf("%w: run %d: snapshot %d missing", wave.ErrMalformedDataset, runID, i)
		}
		paths[i] = f.path
	}
	return paths, nil
}

// IsUnavailable reports whether err means the run does not exist.
func IsUnavailable(err error) bool {
	return errors.Is(err, wave.ErrDataUnavailable)
}
