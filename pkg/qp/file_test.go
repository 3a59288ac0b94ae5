package qp

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemFileRoundTrip(t *testing.T) {
	p := sampleProblem()
	p.SetCompliance(1, 1, 0.125)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))

	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.n, back.n)
	assert.Equal(t, p.m, back.m)
	assert.True(t, p.g.Equals(back.g))
	assert.True(t, p.a.Equals(back.a))
	assert.True(t, p.e.Equals(back.e))
	assert.Equal(t, p.c, back.c)
	assert.Equal(t, p.b, back.b)
	assert.False(t, back.Contacts)
}

func TestFileRoundTripKeepsContactsFlag(t *testing.T) {
	p := NewProblem(1, 3)
	p.Contacts = true
	p.SetHessian(0, 0, 1)
	p.SetConstraint(0, 0, 1)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	back, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, back.Contacts)
}

func TestReadRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no dims", "G 0 0 1.0\n"},
		{"duplicate dims", "dims 2 2\ndims 2 2\n"},
		{"bad dims", "dims 0 2\n"},
		{"unknown record", "dims 2 2\nQ 0 0 1.0\n"},
		{"entry out of range", "dims 2 2\nG 5 0 1.0\n"},
		{"bound out of range", "dims 2 2\nb 7 1.0\n"},
		{"short entry", "dims 2 2\nA 0 1\n"},
		{"bad value", "dims 2 2\nc 0 xyz\n"},
		{"empty", "\n# comment only\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestReadSkipsCommentsAndBlanks(t *testing.T) {
	in := "# header\n\ndims 1 1\n\nG 0 0 2.0\nA 0 0 1.0\nb 0 0.5\n"
	p, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.g.GetElement(0, 0))
	assert.Equal(t, 0.5, p.b[0])
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.qp")
	p := sampleProblem()
	require.NoError(t, p.WriteFile(path))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, p.g.Equals(back.g))
}
