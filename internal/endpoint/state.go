package endpoint

// State is a position in the acquisition state machine.
type State int

const (
	Unstarted State = iota
	AddressAllocated
	CategoryRegistered
	NodeCreated
	LineClaimed
	DirectionSet
	Ready
)

var stateNames = [...]string{
	Unstarted:          "unstarted",
	AddressAllocated:   "address_allocated",
	CategoryRegistered: "category_registered",
	NodeCreated:        "node_created",
	LineClaimed:        "line_claimed",
	DirectionSet:       "direction_set",
	Ready:              "ready",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Step is one forward transition. Step k moves the machine into State k.
type Step int

const (
	StepAllocRegion Step = iota + 1
	StepRegisterClass
	StepCreateNode
	StepClaimLine
	StepSetDirection
	StepInitialState
)

var stepNames = [...]string{
	StepAllocRegion:   "alloc_region",
	StepRegisterClass: "register_class",
	StepCreateNode:    "create_node",
	StepClaimLine:     "claim_line",
	StepSetDirection:  "set_direction",
	StepInitialState:  "initial_state",
}

func (s Step) String() string {
	if s < StepAllocRegion || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// Reaches is the state the machine is in once the step succeeds.
func (s Step) Reaches() State {
	return State(s)
}
