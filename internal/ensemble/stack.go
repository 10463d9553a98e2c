package ensemble

import (
	"fmt"

	"github.com/rewired-gh/landoracle/internal/learner"
	"github.com/rewired-gh/landoracle/internal/models"
)

// Stack is the full two-level ensemble: both base learners evaluated on the
// same vector, then combined by the meta model.
type Stack struct {
	A    learner.Learner
	B    learner.Learner
	Meta *Linear
}

// Prediction carries every intermediate value of one stack evaluation.
type Prediction struct {
	LogA    float64
	LogB    float64
	LogMeta float64
	Price   float64
}

// Predict runs the stack on fv.
func (s *Stack) Predict(fv models.FeatureVector) (Prediction, error) {
	logA, err := s.A.Predict(fv)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s prediction failed: %w", s.A.Name(), err)
	}
	logB, err := s.B.Predict(fv)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s prediction failed: %w", s.B.Name(), err)
	}

	logMeta := s.Meta.Predict(logA, logB)
	return Prediction{
		LogA:    logA,
		LogB:    logB,
		LogMeta: logMeta,
		Price:   ToPrice(logMeta),
	}, nil
}
