package opt

// Scheduler yields the learning rate for successive epochs.
type Scheduler interface {
	// Step advances the schedule by one epoch.
	Step()
	// LR returns the current learning rate.
	LR() float64
}

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR struct {
	stepSize  int
	gamma     float64
	lastEpoch int
	lr        float64
}

// NewStepLR returns a StepLR starting at initialLR. A stepSize below 1
// disables decay.
func NewStepLR(stepSize int, gamma, initialLR float64) *StepLR {
	return &StepLR{
		stepSize: stepSize,
		gamma:    gamma,
		lr:       initialLR,
	}
}

// Step advances one epoch, decaying when the epoch count reaches a
// multiple of stepSize.
func (s *StepLR) Step() {
	s.lastEpoch++
	if s.stepSize > 0 && s.lastEpoch%s.stepSize == 0 {
		s.lr *= s.gamma
	}
}

// LR returns the current learning rate.
func (s *StepLR) LR() float64 {
	return s.lr
}

// Epoch returns how many times Step has been called.
func (s *StepLR) Epoch() int {
	return s.lastEpoch
}
