package opt

import "math"

// Tunable is an optimizer whose learning rate a scheduler can change.
type Tunable interface {
	Optimizer
	LR() float64
	SetLR(lr float64)
}

func (s *SGD) LR() float64       { return s.LearningRate }
func (s *SGD) SetLR(lr float64)  { s.LearningRate = lr }
func (a *Adam) LR() float64      { return a.LearningRate }
func (a *Adam) SetLR(lr float64) { a.LearningRate = lr }

// Scheduler adjusts a learning rate once per epoch.
type Scheduler interface {
	// StepWithLoss is called at the end of every epoch with its mean loss.
	StepWithLoss(loss float64)
	GetLR() float64
}

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR struct {
	optimizer Tunable
	stepSize  int
	gamma     float64
	lastEpoch int
}

func NewStepLR(optimizer Tunable, stepSize int, gamma float64) *StepLR {
	return &StepLR{optimizer: optimizer, stepSize: stepSize, gamma: gamma}
}

func (s *StepLR) StepWithLoss(float64) {
	s.lastEpoch++
	if s.stepSize > 0 && s.lastEpoch%s.stepSize == 0 {
		s.optimizer.SetLR(s.optimizer.LR() * s.gamma)
	}
}

func (s *StepLR) GetLR() float64 { return s.optimizer.LR() }

// ReduceLROnPlateau multiplies the learning rate by factor once the loss has
// not improved by more than threshold for patience epochs. It never goes
// below minLR.
type ReduceLROnPlateau struct {
	optimizer Tunable
	factor    float64
	patience  int
	threshold float64
	cooldown  int
	minLR     float64

	bestLoss        float64
	numBadEpochs    int
	cooldownCounter int
}

func NewReduceLROnPlateau(optimizer Tunable, factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		bestLoss:  math.Inf(1),
	}
}

func (s *ReduceLROnPlateau) StepWithLoss(currentLoss float64) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if currentLoss < s.bestLoss-s.threshold {
		s.bestLoss = currentLoss
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs >= s.patience {
		s.optimizer.SetLR(math.Max(s.optimizer.LR()*s.factor, s.minLR))
		s.numBadEpochs = 0
		s.cooldownCounter = s.cooldown
	}
}

func (s *ReduceLROnPlateau) GetLR() float64 { return s.optimizer.LR() }
