package consts

const (
	// Default convergence thresholds for the interior-point loop.
	PrimalTolerance          = 1e-8 // on |rp|/m
	DualTolerance            = 1e-8 // on |rd|/n
	ComplementarityTolerance = 1e-8 // on mu = y'lam/m

	MaxIterations = 50

	// Step-length safety factors. The adaptive schedule moves from EtaBase
	// toward EtaBase+EtaSpan as the complementarity gap closes.
	EtaFixed = 0.95
	EtaBase  = 0.9
	EtaSpan  = 0.1

	// Sparse storage sizing.
	GrowthFactor = 2.0 // capacity multiplier on reallocation
	KKTFullness  = 0.1 // fraction of n*n used as nonzero hint for the KKT matrix
)
