package workflow

// State is the document-review lifecycle stage. It gates which operations are
// valid; exactly one instance is live per open document.
type State string

// Stable values.
const (
	StateIdle           State = "IDLE"
	StateDocumentLoaded State = "DOCUMENT_LOADED"
	StateExtracting     State = "EXTRACTING"
	StateExtracted      State = "EXTRACTED"
	StateFailed         State = "FAILED"
	StateApproved       State = "APPROVED"
	StateRejected       State = "REJECTED"
)

// transitions lists the permitted next states. A fresh document load is legal
// from every state: it supersedes whatever is in the slot, including an
// extraction still in flight.
var transitions = map[State][]State{
	StateIdle:           {StateDocumentLoaded},
	StateDocumentLoaded: {StateExtracting, StateDocumentLoaded},
	StateExtracting:     {StateExtracted, StateFailed, StateDocumentLoaded},
	StateExtracted:      {StateApproved, StateRejected, StateDocumentLoaded},
	StateFailed:         {StateRejected, StateDocumentLoaded},
	StateApproved:       {StateDocumentLoaded},
	StateRejected:       {StateDocumentLoaded},
}

// ValidTransition reports whether from -> to is a permitted transition.
func ValidTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal disposition for the current document.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}
