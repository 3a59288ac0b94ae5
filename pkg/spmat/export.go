package spmat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mbdsim/ipqp/pkg/util"
)

// WriteTriplets dumps the matrix as "row col value" lines, one entry per
// line, values in scientific notation with the given precision. Entries are
// emitted in storage order; Compress first for sorted output.
func (m *Matrix) WriteTriplets(w io.Writer, precision int) error {
	bw := bufio.NewWriter(w)
	var err error
	m.ForEachNonZero(func(row, col int, v float64) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(bw, "%d %d %s\n", row, col, util.FormatScientific(v, precision))
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteArrays dumps the raw CSR3 representation: the leading-index array,
// the trailing-index array and the value array, each to its own writer, one
// element per line. The matrix must be compressed so the arrays carry no
// holes.
func (m *Matrix) WriteArrays(leadW, trailW, valueW io.Writer, precision int) error {
	if !m.compressed {
		return fmt.Errorf("spmat: array dump requires a compressed matrix")
	}
	bw := bufio.NewWriter(leadW)
	for _, v := range m.leadIndex {
		if _, err := fmt.Fprintln(bw, v); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	bw = bufio.NewWriter(trailW)
	for _, v := range m.TrailArray() {
		if _, err := fmt.Fprintln(bw, v); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	bw = bufio.NewWriter(valueW)
	for _, v := range m.ValueArray() {
		if _, err := fmt.Fprintln(bw, util.FormatScientific(v, precision)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportDatFiles writes the three CSR3 arrays as lead.dat, trail.dat and
// values.dat under dir, creating the directory if needed.
func (m *Matrix) ExportDatFiles(dir string, precision int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %v", err)
	}
	files := make([]*os.File, 3)
	for i, name := range []string{"lead.dat", "trail.dat", "values.dat"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("creating %s: %v", name, err)
		}
		defer f.Close()
		files[i] = f
	}
	return m.WriteArrays(files[0], files[1], files[2], precision)
}

// ReadTriplets parses a triplet dump produced by WriteTriplets into a fresh
// row-major matrix of the given dimensions. Blank lines and lines starting
// with '#' are skipped.
func ReadTriplets(r io.Reader, rows, cols int) (*Matrix, error) {
	m := New(rows, cols, rows)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("spmat: triplet line %d: want 3 fields, got %d", line, len(fields))
		}
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("spmat: triplet line %d: bad row: %v", line, err)
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("spmat: triplet line %d: bad column: %v", line, err)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("spmat: triplet line %d: bad value: %v", line, err)
		}
		if row < 0 || row >= rows || col < 0 || col >= cols {
			return nil, fmt.Errorf("spmat: triplet line %d: index (%d,%d) outside %dx%d", line, row, col, rows, cols)
		}
		m.SetElement(row, col, v, true)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadArrays rebuilds a row-major matrix from an array dump produced by
// WriteArrays. The column count is not part of the dump and must be given.
// The result comes back compressed.
func ReadArrays(leadR, trailR, valueR io.Reader, cols int) (*Matrix, error) {
	lead, err := readIntLines(leadR)
	if err != nil {
		return nil, err
	}
	trail, err := readIntLines(trailR)
	if err != nil {
		return nil, err
	}
	vals, err := ReadVector(valueR)
	if err != nil {
		return nil, err
	}
	if len(lead) < 2 {
		return nil, fmt.Errorf("spmat: leading-index dump has %d entries, want at least 2", len(lead))
	}
	rows := len(lead) - 1
	if len(trail) != len(vals) {
		return nil, fmt.Errorf("spmat: %d trailing indices vs %d values", len(trail), len(vals))
	}
	if lead[0] != 0 || lead[rows] != len(trail) {
		return nil, fmt.Errorf("spmat: leading-index window [%d, %d] does not cover %d entries", lead[0], lead[rows], len(trail))
	}

	m := New(rows, cols, len(trail))
	m.leadIndex = lead
	m.trailIndex = trail
	m.values = vals
	m.initialized = make([]bool, len(trail))
	for i := range m.initialized {
		m.initialized[i] = true
	}
	m.compressed = true
	if err := m.VerifyMatrix(); err != nil {
		return nil, err
	}
	return m, nil
}

// ImportDatFiles reads the lead.dat, trail.dat and values.dat written by
// ExportDatFiles back into a compressed matrix.
func ImportDatFiles(dir string, cols int) (*Matrix, error) {
	files := make([]*os.File, 3)
	for i, name := range []string{"lead.dat", "trail.dat", "values.dat"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %v", name, err)
		}
		defer f.Close()
		files[i] = f
	}
	return ReadArrays(files[0], files[1], files[2], cols)
}

// readIntLines parses one integer per line; blank lines and '#' comments are
// skipped.
func readIntLines(r io.Reader) ([]int, error) {
	var out []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("spmat: index line %d: %v", line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteVector dumps a dense vector one value per line, matching the format
// the solver uses for problem dumps.
func WriteVector(w io.Writer, vec []float64, precision int) error {
	bw := bufio.NewWriter(w)
	for _, v := range vec {
		if _, err := fmt.Fprintln(bw, util.FormatScientific(v, precision)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadVector parses a dense vector dump produced by WriteVector.
func ReadVector(r io.Reader) ([]float64, error) {
	var vec []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("spmat: vector line %d: %v", line, err)
		}
		vec = append(vec, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return vec, nil
}
