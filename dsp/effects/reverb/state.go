package reverb

// State tells the host graph whether an engine wants to keep running.
type State int

const (
	// Continue indicates the engine expects further blocks. Free-running
	// effects return Continue from every ProcessBlock call.
	Continue State = iota
	// Done indicates the engine has finished producing output.
	Done
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case Continue:
		return "Continue"
	case Done:
		return "Done"
	default:
		return "State(?)"
	}
}
