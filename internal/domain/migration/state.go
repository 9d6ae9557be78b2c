package migration

// State is a pipeline position. Transitions are strictly linear and
// irreversible; any failure halts the run in its current state.
type State string

const (
	StateStarted           State = "Started"
	StateMetadataCollected State = "MetadataCollected"
	StateSourceDeallocated State = "SourceDeallocated"
	StateSnapshotsCreated  State = "SnapshotsCreated"
	StateSnapshotsCopied   State = "SnapshotsCopied"
	StateDisksCreated      State = "DisksCreated"
	StateNetworkBuilt      State = "NetworkBuilt"
	StateVMCreated         State = "VmCreated"
	StateDisksAttached     State = "DisksAttached"
	StateComplete          State = "Complete"
)

var order = []State{
	StateStarted,
	StateMetadataCollected,
	StateSourceDeallocated,
	StateSnapshotsCreated,
	StateSnapshotsCopied,
	StateDisksCreated,
	StateNetworkBuilt,
	StateVMCreated,
	StateDisksAttached,
	StateComplete,
}

// Next returns the single legal successor state, or "" for terminal or
// unknown states.
func (s State) Next() State {
	for i, st := range order {
		if st == s && i+1 < len(order) {
			return order[i+1]
		}
	}
	return ""
}

// Terminal reports whether the pipeline has finished.
func (s State) Terminal() bool {
	return s == StateComplete
}

// Valid reports whether s is a known pipeline state.
func (s State) Valid() bool {
	for _, st := range order {
		if st == s {
			return true
		}
	}
	return false
}
