package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/psiviz/internal/wave"
)

func testRecord() *wave.Record {
	return &wave.Record{
		Times: []float64{0, 50, 100},
		Psi: [][]complex128{
			{complex(1, 0), complex(0, 1), complex(0.5, -0.5), 0, 0, complex(2, 0)},
			{0, complex(1, 1), 0, complex(-1, 0), 0, 0},
			{complex(0, 0.25), 0, 0, 0, complex(3, 0), 0},
		},
		XMin: -1, XMax: 1,
		YMin: 0, YMax: 4,
		NX: 2, NY: 3,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	st := newTestStore(t)
	rec := testRecord()

	require.NoError(t, st.Save(1, rec, "barrier"))

	got, err := st.Load(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, rec.Times, got.Times)
	assert.Equal(t, rec.Psi, got.Psi)
	assert.Equal(t, rec.NX, got.NX)
	assert.Equal(t, rec.NY, got.NY)
	assert.Equal(t, rec.XMin, got.XMin)
	assert.Equal(t, rec.YMax, got.YMax)

	meta, err := st.Metadata(1)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, meta.FormatVersion)
	assert.Equal(t, "barrier", meta.Description)
	assert.Equal(t, 3, meta.Steps)
}

func TestStoreFileStructure(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(7, testRecord(), ""))

	runDir := filepath.Join(st.baseDir, "7")
	for _, name := range []string{"run.json", "psi_000000.bin", "psi_000001.bin", "psi_000002.bin"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}

	info, err := os.Stat(filepath.Join(runDir, "psi_000000.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+16*6), info.Size())
}

func TestStoreResaveDropsStaleSnapshots(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(1, testRecord(), ""))

	short := testRecord()
	short.Times = short.Times[:1]
	short.Psi = short.Psi[:1]
	require.NoError(t, st.Save(1, short, ""))

	got, err := st.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Steps())
}

func TestStoreLoadMissingRun(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Load(context.Background(), 42)
	require.ErrorIs(t, err, wave.ErrDataUnavailable)
	assert.True(t, IsUnavailable(err))
}

func TestStoreLoadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		damage func(t *testing.T, runDir string)
	}{
		{"missing snapshot", func(t *testing.T, runDir string) {
			require.NoError(t, os.Remove(filepath.Join(runDir, "psi_000001.bin")))
		}},
		{"truncated payload", func(t *testing.T, runDir string) {
			p := filepath.Join(runDir, "psi_000002.bin")
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(p, data[:len(data)-8], 0644))
		}},
		{"bad magic", func(t *testing.T, runDir string) {
			p := filepath.Join(runDir, "psi_000000.bin")
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			copy(data, "NOPE")
			require.NoError(t, os.WriteFile(p, data, 0644))
		}},
		{"unsupported version", func(t *testing.T, runDir string) {
			rewriteMetadata(t, runDir, func(m *RunMetadata) { m.FormatVersion = "2.0.0" })
		}},
		{"missing version", func(t *testing.T, runDir string) {
			rewriteMetadata(t, runDir, func(m *RunMetadata) { m.FormatVersion = "" })
		}},
		{"header disagrees", func(t *testing.T, runDir string) {
			rewriteMetadata(t, runDir, func(m *RunMetadata) { m.XMax = 5 })
		}},
		{"invalid bounds", func(t *testing.T, runDir string) {
			rewriteMetadata(t, runDir, func(m *RunMetadata) { m.YMin, m.YMax = 4, 0 })
		}},
		{"corrupt metadata", func(t *testing.T, runDir string) {
			require.NoError(t, os.WriteFile(filepath.Join(runDir, "run.json"), []byte("{"), 0644))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			require.NoError(t, st.Save(1, testRecord(), ""))
			tt.damage(t, filepath.Join(st.baseDir, "1"))

			_, err := st.Load(context.Background(), 1)
			assert.ErrorIs(t, err, wave.ErrMalformedDataset)
		})
	}
}

func rewriteMetadata(t *testing.T, runDir string, edit func(m *RunMetadata)) {
	t.Helper()
	p := filepath.Join(runDir, "run.json")
	data, err := os.ReadFile(p)
	require.NoError(t, err)

	var meta RunMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	edit(&meta)

	data, err = json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, data, 0644))
}

func TestStoreList(t *testing.T) {
	st := newTestStore(t)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Save(3, testRecord(), ""))
	require.NoError(t, st.Save(1, testRecord(), ""))
	require.NoError(t, os.MkdirAll(filepath.Join(st.baseDir, "scratch"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 1, runs[0].ID)
	assert.Equal(t, 3, runs[1].ID)
}

func TestStoreEmptyRun(t *testing.T) {
	st := newTestStore(t)
	rec := testRecord()
	rec.Times = nil
	rec.Psi = nil
	require.NoError(t, st.Save(1, rec, ""))

	got, err := st.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Steps())

	_, err = wave.Reduce(got)
	assert.ErrorIs(t, err, wave.ErrEmptyDataset)
}

func TestWriteMetadataReportsWriteErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	err := writeMetadata("/dev/full", &RunMetadata{ID: 1, FormatVersion: FormatVersion})
	assert.Error(t, err)
}

func TestStoreSaveFailsWhenMetadataUnwritable(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(st.baseDir, "1", "run.json"), 0755))

	err := st.Save(1, testRecord(), "")
	assert.Error(t, err)
}
