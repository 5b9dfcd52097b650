package net

import (
	"log"
	"math"
)

// Callback observes a Train call.
type Callback interface {
	OnTrainBegin(n *Network)
	OnEpochEnd(n *Network, stats EpochStats)
	OnTrainEnd(n *Network, res TrainResult)
}

// Stopper is implemented by callbacks that can end training early.
// Train checks ShouldStop after every epoch.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(n *Network)                 {}
func (BaseCallback) OnEpochEnd(n *Network, stats EpochStats) {}
func (BaseCallback) OnTrainEnd(n *Network, res TrainResult)  {}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger // log.Default() when nil
}

func (c Logger) out() *log.Logger {
	if c.Out == nil {
		return log.Default()
	}
	return c.Out
}

func (c Logger) OnEpochEnd(n *Network, s EpochStats) {
	if c.Interval > 0 && (s.Epoch+1)%c.Interval == 0 {
		c.out().Printf("epoch %d: loss=%.6f lr=%g batches=%d (%s)", s.Epoch+1, s.Loss, s.LearningRate, s.Batches, s.Elapsed)
	}
}

func (c Logger) OnTrainEnd(n *Network, res TrainResult) {
	c.out().Printf("held-out: samples=%d avg_cost=%.6f min=%.6f max=%.6f hits=%.2f%%",
		res.Samples, res.AverageCost, res.MinCost, res.MaxCost, res.HitPercentage)
}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	bestLoss     float64
	numBadEpochs int
	stopped      bool
}

// NewEarlyStopping stops after patience epochs without the loss dropping
// by more than threshold.
func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.Inf(1),
	}
}

func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.bestLoss = math.Inf(1)
	c.numBadEpochs = 0
	c.stopped = false
}

func (c *EarlyStopping) OnEpochEnd(n *Network, s EpochStats) {
	if s.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = s.Loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		n.logger.Printf("early stopping at epoch %d: loss %.6f did not improve for %d epochs", s.Epoch+1, s.Loss, c.Patience)
		c.stopped = true
	}
}

// ShouldStop reports whether the patience ran out.
func (c *EarlyStopping) ShouldStop() bool {
	return c.stopped
}

// ModelCheckpoint saves the weights whenever the epoch loss is the best so
// far.
type ModelCheckpoint struct {
	BaseCallback
	Filename string

	bestLoss float64
	// Err holds the last save failure, if any.
	Err error
}

// NewModelCheckpoint returns a checkpoint writing to filename.
func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.Inf(1),
	}
}

func (c *ModelCheckpoint) OnTrainBegin(n *Network) {
	c.bestLoss = math.Inf(1)
	c.Err = nil
}

func (c *ModelCheckpoint) OnEpochEnd(n *Network, s EpochStats) {
	if s.Batches == 0 || s.Loss >= c.bestLoss {
		return
	}
	c.bestLoss = s.Loss
	if err := n.Save(c.Filename); err != nil {
		c.Err = err
		n.logger.Printf("checkpoint: %v", err)
		return
	}
	n.logger.Printf("checkpoint saved: loss %.6f is new best", s.Loss)
}
