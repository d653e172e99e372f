package scan

// Direction is the traversal order of a scan.
type Direction uint8

const (
	Forward Direction = iota
	// Backward scans from the last element towards the first. It behaves exactly like
	// a forward scan of the reversed array, where an element ends its segment if its
	// successor carries a head flag.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Mode selects whether an element's own value is part of its result.
type Mode uint8

const (
	Inclusive Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "inclusive"
}

// Traits fix direction, mode and operator of an Engine. The zero value of Traits
// describes a forward inclusive scan with the zero value of O.
type Traits[T any, O Operator[T]] struct {
	Direction Direction
	Mode      Mode
	Op        O
}

// Stage names the phases of one scan invocation.
type Stage uint8

const (
	StageIdle Stage = iota
	StageLocalScan
	StageCombine
	StageDistribute
	StageDone
)

var stageNames = [...]string{"idle", "local-scan", "combine", "distribute", "done"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "stage?"
}
