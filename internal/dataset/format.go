package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Masterminds/semver/v3"
	"github.com/san-kum/psiviz/internal/wave"
)

// FormatVersion is written into every run.json produced by this package.
const FormatVersion = "1.1.0"

var (
	snapshotMagic = [4]byte{'P', 'S', 'I', '2'}

	// Readers accept any 1.x layout.
	supportedFormat = mustConstraint("^1.0")
)

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

func checkFormat(version string) error {
	if version == "" {
		return fmt.Errorf("%w: missing format version", wave.ErrMalformedDataset)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: format version %q: %v", wave.ErrMalformedDataset, version, err)
	}
	if !supportedFormat.Check(v) {
		return fmt.Errorf("%w: unsupported format version %s", wave.ErrMalformedDataset, v)
	}
	return nil
}

// snapshotHeader mirrors the solver's per-file header for 2D runs.
type snapshotHeader struct {
	Magic [4]byte
	NDims uint32
	NDimX uint64
	NDimY uint64
	XMin  float64
	XMax  float64
	YMin  float64
	YMax  float64
	T     float64
}

var headerSize = binary.Size(snapshotHeader{})

func writeSnapshot(w io.Writer, rec *wave.Record, k int) error {
	hdr := snapshotHeader{
		Magic: snapshotMagic,
		NDims: 2,
		NDimX: uint64(rec.NX),
		NDimY: uint64(rec.NY),
		XMin:  rec.XMin,
		XMax:  rec.XMax,
		YMin:  rec.YMin,
		YMax:  rec.YMax,
		T:     rec.Times[k],
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	_, err := w.Write(encodeSamples(rec.Psi[k]))
	return err
}

func readSnapshot(data []byte) (snapshotHeader, []complex128, error) {
	var hdr snapshotHeader
	if len(data) < headerSize {
		return hdr, nil, fmt.Errorf("%w: snapshot shorter than header (%d bytes)", wave.ErrMalformedDataset, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("%w: header: %v", wave.ErrMalformedDataset, err)
	}
	if hdr.Magic != snapshotMagic {
		return hdr, nil, fmt.Errorf("%w: bad magic %q", wave.ErrMalformedDataset, hdr.Magic[:])
	}
	if hdr.NDims != 2 {
		return hdr, nil, fmt.Errorf("%w: %d-dimensional snapshot, want 2", wave.ErrMalformedDataset, hdr.NDims)
	}
	samples, err := decodeSamples(data[headerSize:], int(hdr.NDimX*hdr.NDimY))
	if err != nil {
		return hdr, nil, err
	}
	return hdr, samples, nil
}

func encodeSamples(psi []complex128) []byte {
	buf := make([]byte, 16*len(psi))
	for i, v := range psi {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(imag(v)))
	}
	return buf
}

func decodeSamples(buf []byte, n int) ([]complex128, error) {
	if len(buf) != 16*n {
		return nil, fmt.Errorf("%w: %d payload bytes for %d samples", wave.ErrMalformedDataset, len(buf), n)
	}
	psi := make([]complex128, n)
	for i := range psi {
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[16*i+8:]))
		psi[i] = complex(re, im)
	}
	return psi, nil
}
