package ipm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbdsim/ipqp/pkg/spmat"
)

// DumpProblem writes the assembled Newton system under dir: the three CSR3
// arrays of the matrix plus rhs.dat, one value per line. Meant for replaying
// a failing solve offline.
func (s *Solver) DumpProblem(dir string) error {
	if s.kkt == nil {
		return fmt.Errorf("ipm: no assembled system to dump")
	}
	s.kkt.Compress()
	if err := s.kkt.ExportDatFiles(dir, 12); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "rhs.dat"))
	if err != nil {
		return fmt.Errorf("creating rhs.dat: %v", err)
	}
	defer f.Close()
	return spmat.WriteVector(f, s.rhs, 12)
}

// DumpIterate writes the current iterate as x.dat, y.dat and lambda.dat
// under dir.
func (s *Solver) DumpIterate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %v", err)
	}
	for _, part := range []struct {
		name string
		vec  []float64
	}{
		{"x.dat", s.x},
		{"y.dat", s.y},
		{"lambda.dat", s.lam},
	} {
		f, err := os.Create(filepath.Join(dir, part.name))
		if err != nil {
			return fmt.Errorf("creating %s: %v", part.name, err)
		}
		if err := spmat.WriteVector(f, part.vec, 12); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
