package ipm

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mbdsim/ipqp/pkg/util"
)

// IterationRecord captures one interior-point iteration for convergence
// analysis.
type IterationRecord struct {
	SolveCall int
	Iteration int

	Mu             float64
	PrimalResidual float64
	DualResidual   float64

	AlphaPrimal float64
	AlphaDual   float64
	Sigma       float64 // 0 when running predictor-only
}

// History returns the records of the most recent Solve call. The slice is
// owned by the solver and overwritten on the next call.
func (s *Solver) History() []IterationRecord { return s.history }

// WriteHistoryCSV writes iteration records as CSV with a header row.
func WriteHistoryCSV(w io.Writer, records []IterationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"call", "iter", "mu", "rp", "rd", "alpha_p", "alpha_d", "sigma"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.SolveCall),
			strconv.Itoa(r.Iteration),
			util.FormatScientific(r.Mu, 12),
			util.FormatScientific(r.PrimalResidual, 12),
			util.FormatScientific(r.DualResidual, 12),
			util.FormatScientific(r.AlphaPrimal, 6),
			util.FormatScientific(r.AlphaDual, 6),
			util.FormatScientific(r.Sigma, 6),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
