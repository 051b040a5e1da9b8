package booking

// SelectionStage models the two-step date picker: the guest is either choosing
// an arrival date or, with an arrival fixed, choosing a departure date.
type SelectionStage struct {
	departure bool
	arrival   Date
}

// StageArrival is the initial stage: the guest is picking an arrival date.
func StageArrival() SelectionStage {
	return SelectionStage{}
}

// StageDeparture is the second stage: arrival is fixed and the guest is
// picking a departure date.
func StageDeparture(arrival Date) SelectionStage {
	return SelectionStage{departure: true, arrival: arrival}
}

// PickingDeparture reports whether the stage is departure selection, and if
// so returns the fixed arrival date.
func (s SelectionStage) PickingDeparture() (Date, bool) {
	return s.arrival, s.departure
}
