package types

// Direction identifies which side of the Common Interface sent a frame
type Direction uint8

const (
	// DirectionAny matches both directions in static tag tables
	DirectionAny Direction = iota
	// DirectionHostToModule is host -> CAM
	DirectionHostToModule
	// DirectionModuleToHost is CAM -> host
	DirectionModuleToHost
)

// String returns string representation of Direction
func (d Direction) String() string {
	switch d {
	case DirectionHostToModule:
		return "Host->Module"
	case DirectionModuleToHost:
		return "Module->Host"
	case DirectionAny:
		return "Any"
	default:
		return "Unknown"
	}
}

// Allows reports whether a message sent in direction got is permitted by d
func (d Direction) Allows(got Direction) bool {
	return d == DirectionAny || d == got
}
