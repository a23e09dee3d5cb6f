package models

// JourneyStep is the derived stage (1-6) of an outing's planning lifecycle,
// used to gate UI navigation. It is always recomputed from underlying facts
// and never persisted, so a stored step can never drift from the data.
type JourneyStep int

const (
	StepSuggestions JourneyStep = iota + 1
	StepMatch
	StepItinerary
	StepLog
	StepMemories
	StepEvaluation
)

// String returns the display name of the step
func (s JourneyStep) String() string {
	switch s {
	case StepSuggestions:
		return "suggestions"
	case StepMatch:
		return "match"
	case StepItinerary:
		return "itinerary"
	case StepLog:
		return "log"
	case StepMemories:
		return "memories"
	case StepEvaluation:
		return "evaluation"
	default:
		return "unknown"
	}
}

// CurrentStep derives the journey step an outing's family may currently be
// shown. Pure function of the outing plus two existence facts:
//
//   - evaluation submitted is terminal (step 6)
//   - a completed outing is reviewing memories (step 5)
//   - an outing underway is logging (step 4)
//   - an explicitly saved itinerary unlocks step 3
//   - any activity request at all unlocks step 2
//   - otherwise the family is still browsing suggestions (step 1)
func CurrentStep(outing *Outing, hasAnyRequest, hasSavedItinerary bool) JourneyStep {
	switch {
	case outing.EvaluationSubmitted:
		return StepEvaluation
	case outing.Status == OutingCompleted:
		return StepMemories
	case outing.Status == OutingInProgress:
		return StepLog
	case hasSavedItinerary:
		return StepItinerary
	case hasAnyRequest:
		return StepMatch
	default:
		return StepSuggestions
	}
}
