package workflow

import (
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/route"
)

// Pipeline is a linear run of screens. Next always moves to the fixed successor.
type Pipeline struct {
	Kind  observation.Kind
	Steps []route.Name
	// CompleteFrom is the step whose Next completes the session record.
	CompleteFrom route.Name
}

var (
	ObservationPipeline = Pipeline{
		Kind: observation.KindClassObservation,
		Steps: []route.Name{
			route.ObservationAbout,
			route.ObservationOnboarding,
			route.ObservationSetup,
			route.ObservationForm,
			route.ObservationConfirmation,
			route.ObservationCompleted,
		},
		CompleteFrom: route.ObservationConfirmation,
	}

	FeedbackPipeline = Pipeline{
		Kind: observation.KindFeedback,
		Steps: []route.Name{
			route.FeedbackAbout,
			route.FeedbackChooseCompetence,
			route.FeedbackForm,
			route.FeedbackCompleted,
		},
		CompleteFrom: route.FeedbackForm,
	}
)

func (p Pipeline) index(r route.Name) int {
	for i, s := range p.Steps {
		if s == r {
			return i
		}
	}
	return -1
}

func (p Pipeline) First() route.Name { return p.Steps[0] }

func (p Pipeline) Last() route.Name { return p.Steps[len(p.Steps)-1] }

// Next returns the successor of r; false at the last step or for unknown routes.
func (p Pipeline) Next(r route.Name) (route.Name, bool) {
	i := p.index(r)
	if i < 0 || i == len(p.Steps)-1 {
		return "", false
	}
	return p.Steps[i+1], true
}

// Prev returns the predecessor of r; false at the first step or for unknown routes.
func (p Pipeline) Prev(r route.Name) (route.Name, bool) {
	i := p.index(r)
	if i <= 0 {
		return "", false
	}
	return p.Steps[i-1], true
}

func pipelineFor(s State) (Pipeline, bool) {
	switch s {
	case ObservationInProgress:
		return ObservationPipeline, true
	case FeedbackInProgress:
		return FeedbackPipeline, true
	}
	return Pipeline{}, false
}
