package net

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/densenet/internal/loss"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// DecayInterval is the number of epochs between learning-rate decays.
const DecayInterval = 10

// TrainConfig holds the hyperparameters of one Train call.
type TrainConfig struct {
	// TrainRatio is the fraction of samples used for training, in [0, 1].
	// The rest is held out for evaluation.
	TrainRatio float64
	Epochs     int
	BatchSize  int

	LearningRate float64
	// LearningRateDecay multiplies the learning rate every DecayInterval
	// epochs. 1 keeps it constant.
	LearningRateDecay float64

	Callbacks []Callback
}

// Validate checks the hyperparameter ranges.
func (c TrainConfig) Validate() error {
	switch {
	case math.IsNaN(c.TrainRatio) || c.TrainRatio < 0 || c.TrainRatio > 1:
		return fmt.Errorf("%w: train ratio %v outside [0, 1]", ErrInvalidConfig, c.TrainRatio)
	case c.Epochs < 0:
		return fmt.Errorf("%w: epochs %d", ErrInvalidConfig, c.Epochs)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	}
	return nil
}

// TrainResult summarizes the evaluation over the held-out samples.
type TrainResult struct {
	AverageCost   float64 // mean per-sample cost
	MinCost       float64 // lowest per-sample cost
	MaxCost       float64 // highest per-sample cost
	HitPercentage float64 // hits / samples * 100
	Hits          int
	Samples       int // held-out samples evaluated

	FinalLearningRate float64
}

// EpochStats is reported to callbacks after every epoch.
type EpochStats struct {
	Epoch        int
	LearningRate float64
	Loss         float64 // mean cross entropy over the epoch's batches
	Batches      int
	Elapsed      time.Duration
}

type sample struct {
	input  []float64
	target []float64
}

// Train fits the network with mini-batch gradient descent and evaluates it
// on the held-out split.
//
// Samples are shuffled and split at floor(N*TrainRatio). The network is
// re-randomized first, so earlier training is discarded. Each epoch
// reshuffles the training split and runs contiguous batches of BatchSize;
// a trailing partial batch is dropped. Validation happens before anything
// is mutated.
func (n *Network) Train(inputs, targets [][]float64, cfg TrainConfig) (TrainResult, error) {
	if err := n.validateSamples(inputs, targets); err != nil {
		return TrainResult{}, err
	}
	if err := cfg.Validate(); err != nil {
		return TrainResult{}, err
	}

	samples := make([]sample, len(inputs))
	for i := range inputs {
		samples[i] = sample{input: inputs[i], target: targets[i]}
	}
	n.shuffle(samples)
	split := int(math.Floor(float64(len(samples)) * cfg.TrainRatio))
	training, heldOut := samples[:split], samples[split:]

	n.Randomize()
	n.logger.Printf("train: widths=%v samples=%d training=%d held_out=%d epochs=%d batch=%d lr=%g",
		n.widths, len(samples), len(training), len(heldOut), cfg.Epochs, cfg.BatchSize, cfg.LearningRate)

	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}

	sched := opt.NewStepLR(DecayInterval, cfg.LearningRateDecay, cfg.LearningRate)
	batchIn := matrix.New(cfg.BatchSize, n.InputWidth())
	batchOut := matrix.New(cfg.BatchSize, n.OutputWidth())

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		start := time.Now()
		if epoch > 0 {
			sched.Step()
		}
		lr := sched.LR()
		n.shuffle(training)

		var epochLoss float64
		batches := 0
		for lo := 0; lo+cfg.BatchSize <= len(training); lo += cfg.BatchSize {
			for i, s := range training[lo : lo+cfg.BatchSize] {
				// Shapes were validated above.
				_ = batchIn.SetColumn(i, s.input)
				_ = batchOut.SetColumn(i, s.target)
			}
			out, err := n.Forward(batchIn)
			if err != nil {
				return TrainResult{}, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			batchLoss, err := loss.CrossEntropy{}.Forward(out, batchOut)
			if err != nil {
				return TrainResult{}, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			epochLoss += batchLoss
			if err := n.Backward(batchOut); err != nil {
				return TrainResult{}, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			if err := n.Update(lr); err != nil {
				return TrainResult{}, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			batches++
		}
		if batches > 0 {
			epochLoss /= float64(batches)
		}

		stats := EpochStats{
			Epoch:        epoch,
			LearningRate: lr,
			Loss:         epochLoss,
			Batches:      batches,
			Elapsed:      time.Since(start),
		}
		if stop := n.endEpoch(cfg.Callbacks, stats); stop {
			n.logger.Printf("train: stopped early after epoch %d", epoch+1)
			break
		}
	}

	res, err := n.evaluate(heldOut)
	if err != nil {
		return TrainResult{}, err
	}
	res.FinalLearningRate = sched.LR()
	n.logger.Printf("train: avg_cost=%.6f min_cost=%.6f max_cost=%.6f hits=%.2f%%",
		res.AverageCost, res.MinCost, res.MaxCost, res.HitPercentage)

	for _, cb := range cfg.Callbacks {
		cb.OnTrainEnd(n, res)
	}
	return res, nil
}

func (n *Network) endEpoch(callbacks []Callback, stats EpochStats) bool {
	stop := false
	for _, cb := range callbacks {
		cb.OnEpochEnd(n, stats)
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			stop = true
		}
	}
	return stop
}

// Evaluate runs every sample through the network one at a time and reports
// squared-error cost and hit rate.
func (n *Network) Evaluate(inputs, targets [][]float64) (TrainResult, error) {
	if err := n.validateSamples(inputs, targets); err != nil {
		return TrainResult{}, err
	}
	samples := make([]sample, len(inputs))
	for i := range inputs {
		samples[i] = sample{input: inputs[i], target: targets[i]}
	}
	return n.evaluate(samples)
}

// evaluate tracks min and max of the per-sample cost. An empty set yields
// a zero result.
func (n *Network) evaluate(samples []sample) (TrainResult, error) {
	if len(samples) == 0 {
		return TrainResult{}, nil
	}

	res := TrainResult{
		MinCost: math.Inf(1),
		MaxCost: math.Inf(-1),
	}
	var total float64
	for i, s := range samples {
		pred, err := n.Predict(s.input)
		if err != nil {
			return TrainResult{}, fmt.Errorf("evaluate sample %d: %w", i, err)
		}
		cost, err := loss.SquaredError{}.Forward(pred, s.target)
		if err != nil {
			return TrainResult{}, fmt.Errorf("evaluate sample %d: %w", i, err)
		}
		total += cost
		res.MinCost = math.Min(res.MinCost, cost)
		res.MaxCost = math.Max(res.MaxCost, cost)
		if floats.MaxIdx(pred) == floats.MaxIdx(s.target) {
			res.Hits++
		}
	}
	res.Samples = len(samples)
	res.AverageCost = total / float64(len(samples))
	res.HitPercentage = float64(res.Hits) / float64(len(samples)) * 100
	return res, nil
}

func (n *Network) validateSamples(inputs, targets [][]float64) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no samples", ErrShapeMismatch)
	}
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrShapeMismatch, len(inputs), len(targets))
	}
	in, out := n.InputWidth(), n.OutputWidth()
	for i := range inputs {
		if len(inputs[i]) != in {
			return fmt.Errorf("%w: input %d has %d values, want %d", ErrShapeMismatch, i, len(inputs[i]), in)
		}
		if len(targets[i]) != out {
			return fmt.Errorf("%w: target %d has %d values, want %d", ErrShapeMismatch, i, len(targets[i]), out)
		}
	}
	return nil
}

func (n *Network) shuffle(samples []sample) {
	n.rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}
