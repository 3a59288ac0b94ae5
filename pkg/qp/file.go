package qp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mbdsim/ipqp/pkg/util"
)

// The text format is line oriented, one keyword-led record per line:
//
//	dims <n> <m>
//	contacts <0|1>
//	G <row> <col> <value>
//	A <row> <col> <value>
//	E <row> <col> <value>
//	c <index> <value>
//	b <index> <value>
//
// Blank lines and lines starting with '#' are ignored. "dims" must come
// before any matrix or vector record.

// Write dumps the problem in the text format, entries in storage order.
func (p *Problem) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# qp problem, %d variables, %d constraints\n", p.n, p.m)
	fmt.Fprintf(bw, "dims %d %d\n", p.n, p.m)
	if p.Contacts {
		fmt.Fprintln(bw, "contacts 1")
	}
	writeMatrix := func(tag string, m interface {
		ForEachNonZero(func(int, int, float64))
	}) {
		m.ForEachNonZero(func(r, c int, v float64) {
			fmt.Fprintf(bw, "%s %d %d %s\n", tag, r, c, util.FormatScientific(v, 12))
		})
	}
	writeMatrix("G", p.g)
	writeMatrix("A", p.a)
	if p.e != nil {
		writeMatrix("E", p.e)
	}
	for i, v := range p.c {
		if v != 0 {
			fmt.Fprintf(bw, "c %d %s\n", i, util.FormatScientific(v, 12))
		}
	}
	for i, v := range p.b {
		if v != 0 {
			fmt.Fprintf(bw, "b %d %s\n", i, util.FormatScientific(v, 12))
		}
	}
	return bw.Flush()
}

// WriteFile dumps the problem to a file.
func (p *Problem) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v", path, err)
	}
	defer f.Close()
	return p.Write(f)
}

// Read parses a problem in the text format.
func Read(r io.Reader) (*Problem, error) {
	var p *Problem
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		tag := fields[0]

		if tag == "dims" {
			if p != nil {
				return nil, fmt.Errorf("qp: line %d: duplicate dims record", line)
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("qp: line %d: dims wants 2 fields", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("qp: line %d: bad n: %v", line, err)
			}
			m, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("qp: line %d: bad m: %v", line, err)
			}
			if n <= 0 || m < 0 {
				return nil, fmt.Errorf("qp: line %d: dims %d %d out of range", line, n, m)
			}
			p = NewProblem(n, m)
			continue
		}
		if p == nil {
			return nil, fmt.Errorf("qp: line %d: %q before dims", line, tag)
		}

		switch tag {
		case "contacts":
			if len(fields) != 2 {
				return nil, fmt.Errorf("qp: line %d: contacts wants 1 field", line)
			}
			p.Contacts = fields[1] != "0"
		case "G", "A", "E":
			row, col, v, err := parseEntry(fields, line)
			if err != nil {
				return nil, err
			}
			rows, cols := p.n, p.n
			if tag != "G" {
				rows = p.m
				if tag == "E" {
					cols = p.m
				}
			}
			if row < 0 || row >= rows || col < 0 || col >= cols {
				return nil, fmt.Errorf("qp: line %d: %s entry (%d,%d) outside %dx%d", line, tag, row, col, rows, cols)
			}
			switch tag {
			case "G":
				p.SetHessian(row, col, v)
			case "A":
				p.SetConstraint(row, col, v)
			case "E":
				p.SetCompliance(row, col, v)
			}
		case "c", "b":
			if len(fields) != 3 {
				return nil, fmt.Errorf("qp: line %d: %s wants 2 fields", line, tag)
			}
			i, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("qp: line %d: bad index: %v", line, err)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("qp: line %d: bad value: %v", line, err)
			}
			limit := p.n
			if tag == "b" {
				limit = p.m
			}
			if i < 0 || i >= limit {
				return nil, fmt.Errorf("qp: line %d: %s index %d outside [0,%d)", line, tag, i, limit)
			}
			if tag == "c" {
				p.c[i] = v
			} else {
				p.b[i] = v
			}
		default:
			return nil, fmt.Errorf("qp: line %d: unknown record %q", line, tag)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("qp: no dims record found")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadFile parses a problem file.
func ReadFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", path, err)
	}
	defer f.Close()
	return Read(f)
}

func parseEntry(fields []string, line int) (int, int, float64, error) {
	if len(fields) != 4 {
		return 0, 0, 0, fmt.Errorf("qp: line %d: matrix entry wants 3 fields", line)
	}
	row, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("qp: line %d: bad row: %v", line, err)
	}
	col, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("qp: line %d: bad column: %v", line, err)
	}
	v, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("qp: line %d: bad value: %v", line, err)
	}
	return row, col, v, nil
}
