package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mbdsim/ipqp/pkg/ipm"
	"github.com/mbdsim/ipqp/pkg/linsolve"
	"github.com/mbdsim/ipqp/pkg/qp"
	"github.com/mbdsim/ipqp/pkg/util"
)

var (
	formulation = flag.String("formulation", "augmented", "KKT formulation: augmented or standard")
	maxIter     = flag.Int("maxiter", 0, "iteration cap (0 = default)")
	dense       = flag.Bool("dense", false, "use the dense LU backend instead of sparse LU")
	lock        = flag.Bool("lock", false, "lock the KKT sparsity pattern")
	skipTan     = flag.Bool("skip-tangential", false, "extract only normal contact rows")
	historyOut  = flag.String("history", "", "write per-iteration history CSV to this file")
	verbose     = flag.Bool("v", false, "print solver progress")
)

func printResults(p *qp.Problem, res *ipm.Result) {
	fmt.Println("\nSolve Results:")
	fmt.Println("==============")
	fmt.Printf("status:      %s\n", res.Status)
	fmt.Printf("iterations:  %d\n", res.Iterations)
	fmt.Printf("objective:   %s\n", util.FormatMagnitude(res.Objective))
	fmt.Printf("mu:          %s\n", util.FormatResidual(res.Mu))
	fmt.Printf("|rp|/m:      %s\n", util.FormatResidual(res.PrimalResidual))
	fmt.Printf("|rd|/n:      %s\n", util.FormatResidual(res.DualResidual))

	fmt.Println("\nPrimal Solution:")
	for i, v := range p.Solution() {
		fmt.Printf("x[%d] = %s\n", i, util.FormatMagnitude(v))
	}
	if p.Constraints() > 0 {
		fmt.Println("\nConstraint Multipliers:")
		for i, v := range p.Multipliers() {
			fmt.Printf("lambda[%d] = %s\n", i, util.FormatMagnitude(v))
		}
	}
}

func writeHistory(path string, res *ipm.Result) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Error creating history file: %v", err)
	}
	defer f.Close()
	if err := ipm.WriteHistoryCSV(f, res.History); err != nil {
		log.Fatalf("Error writing history: %v", err)
	}
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: ipqp [flags] <problem_file>")
	}

	problem, err := qp.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error reading problem file: %v", err)
	}
	fmt.Printf("Problem: %d variables, %d constraints\n",
		problem.Variables(), problem.Constraints())

	cfg := ipm.DefaultConfig()
	switch *formulation {
	case "augmented":
		cfg.Formulation = ipm.Augmented
	case "standard":
		cfg.Formulation = ipm.Standard
	default:
		log.Fatalf("Unknown formulation %q", *formulation)
	}
	if *maxIter > 0 {
		cfg.MaxIterations = *maxIter
	}
	cfg.LockSparsityPattern = *lock
	cfg.SkipTangential = *skipTan
	cfg.Verbose = *verbose

	var backend linsolve.Adapter
	if *dense {
		backend = linsolve.NewDenseLU()
	} else {
		sp := linsolve.NewSparseLU()
		defer sp.Destroy()
		backend = sp
	}

	solver := ipm.New(backend, cfg)
	res, err := solver.Solve(problem)
	if err != nil {
		log.Fatalf("Solve failed: %v", err)
	}

	printResults(problem, res)
	if *historyOut != "" {
		writeHistory(*historyOut, res)
	}
}
