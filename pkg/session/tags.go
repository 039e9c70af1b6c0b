package session

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/types"
)

// Tag is an SPDU tag
type Tag uint8

const (
	TagSessionNumber         Tag = 0x90
	TagOpenSessionRequest    Tag = 0x91
	TagOpenSessionResponse   Tag = 0x92
	TagCreateSession         Tag = 0x93
	TagCreateSessionResponse Tag = 0x94
	TagCloseSessionRequest   Tag = 0x95
	TagCloseSessionResponse  Tag = 0x96
)

type tagInfo struct {
	name   string
	length int
	dir    types.Direction
}

var tagTable = map[Tag]tagInfo{
	TagSessionNumber:         {"session_number", 2, types.DirectionAny},
	TagOpenSessionRequest:    {"open_session_request", 4, types.DirectionModuleToHost},
	TagOpenSessionResponse:   {"open_session_response", 7, types.DirectionHostToModule},
	TagCreateSession:         {"create_session", 6, types.DirectionHostToModule},
	TagCreateSessionResponse: {"create_session_response", 7, types.DirectionModuleToHost},
	TagCloseSessionRequest:   {"close_session_request", 2, types.DirectionAny},
	TagCloseSessionResponse:  {"close_session_response", 3, types.DirectionAny},
}

// String returns string representation of Tag
func (t Tag) String() string {
	if info, ok := tagTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Tag(0x%02X)", uint8(t))
}

// Length returns the fixed length of the SPDU header body for t
func (t Tag) Length() (int, bool) {
	info, ok := tagTable[t]
	return info.length, ok
}

// Status is the session status byte of open/create/close responses
type Status uint8

const (
	StatusOK                  Status = 0x00
	StatusNoResource          Status = 0xF0
	StatusResourceUnavailable Status = 0xF1
	StatusVersionTooLow       Status = 0xF2
	StatusResourceBusy        Status = 0xF3
)

// String returns string representation of Status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "session is opened"
	case StatusNoResource:
		return "resource does not exist"
	case StatusResourceUnavailable:
		return "resource exists but it's unavailable"
	case StatusVersionTooLow:
		return "existing version of the resource is too low"
	case StatusResourceBusy:
		return "resource is busy"
	default:
		return fmt.Sprintf("Status(0x%02X)", uint8(s))
	}
}

// CloseStatus is the status byte of close_session_response
type CloseStatus uint8

const (
	CloseStatusOK        CloseStatus = 0x00
	CloseStatusNotActive CloseStatus = 0xF0
)

// String returns string representation of CloseStatus
func (s CloseStatus) String() string {
	switch s {
	case CloseStatusOK:
		return "session closed"
	case CloseStatusNotActive:
		return "session number not allocated"
	default:
		return fmt.Sprintf("CloseStatus(0x%02X)", uint8(s))
	}
}
