package domain

type RobotStatus string

const (
	RobotIdle    RobotStatus = "idle"
	RobotMoving  RobotStatus = "moving"
	RobotPicking RobotStatus = "picking"
	RobotPlacing RobotStatus = "placing"
)

// RobotPhase is a single bounded step of an operation. Every phase label is
// also a valid non-idle RobotStatus.
type RobotPhase = RobotStatus

func PhasesFor(kind OperationType) []RobotPhase {
	switch kind {
	case OperationRetrieve:
		return []RobotPhase{RobotMoving, RobotPicking, RobotPlacing}
	case OperationRelease:
		return []RobotPhase{RobotMoving, RobotPicking}
	default:
		return nil
	}
}
