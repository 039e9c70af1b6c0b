package physical

import (
	"errors"
	"fmt"

	"avaneesh/dvbci-go/pkg/types"
)

var ErrNotDVBCI = errors.New("dvbci.physical: not a DVB-CI frame")

// HeaderSize is the size of the pseudo-header preceding every record
const HeaderSize = 4

// Version is the only pseudo-header version defined
const Version uint8 = 0

// Event is the pseudo-header event byte
type Event uint8

const (
	EventDataModuleToHost Event = 0xFF // Data transfer CAM -> host
	EventDataHostToModule Event = 0xFE // Data transfer host -> CAM
	EventCISRead          Event = 0xFD // Host read the card information structure
	EventCORWrite         Event = 0xFC // Host wrote the configuration option register
	EventHardware         Event = 0xFB // Hardware event
)

// String returns string representation of Event
func (e Event) String() string {
	switch e {
	case EventDataModuleToHost:
		return "data transfer CAM->host"
	case EventDataHostToModule:
		return "data transfer host->CAM"
	case EventCISRead:
		return "CIS read"
	case EventCORWrite:
		return "COR write"
	case EventHardware:
		return "hardware event"
	default:
		return fmt.Sprintf("Event(0x%02X)", uint8(e))
	}
}

// Valid returns true for the five defined events
func (e Event) Valid() bool {
	return e >= EventHardware
}

// IsData returns true for the two data transfer events
func (e Event) IsData() bool {
	return e == EventDataModuleToHost || e == EventDataHostToModule
}

// Direction returns the direction of a data transfer event. CIS reads are
// answered by the module; COR writes and hardware events come from the host side.
func (e Event) Direction() types.Direction {
	switch e {
	case EventDataModuleToHost, EventCISRead:
		return types.DirectionModuleToHost
	case EventDataHostToModule, EventCORWrite:
		return types.DirectionHostToModule
	default:
		return types.DirectionAny
	}
}

// HWEvent is the hardware event code
type HWEvent uint8

const (
	HWCamIn     HWEvent = 0x01
	HWCamOut    HWEvent = 0x02
	HWPowerOn   HWEvent = 0x03
	HWPowerOff  HWEvent = 0x04
	HWTSEnable  HWEvent = 0x05
	HWTSDisable HWEvent = 0x06
	HWResetHigh HWEvent = 0x07
	HWResetLow  HWEvent = 0x08
	HWReadyHigh HWEvent = 0x09
	HWReadyLow  HWEvent = 0x0A
	HWIRQHigh   HWEvent = 0x0B
	HWIRQLow    HWEvent = 0x0C
	HWDAHigh    HWEvent = 0x0D
	HWDALow     HWEvent = 0x0E
	HWFRHigh    HWEvent = 0x0F
	HWFRLow     HWEvent = 0x10
)

var hwEventNames = map[HWEvent]string{
	HWCamIn:     "CI Module is inserted",
	HWCamOut:    "CI Module is removed",
	HWPowerOn:   "CI slot power on",
	HWPowerOff:  "CI slot power off",
	HWTSEnable:  "TS routed through the CI Module",
	HWTSDisable: "TS bypasses the CI Module",
	HWResetHigh: "Reset pin is high",
	HWResetLow:  "Reset pin is low",
	HWReadyHigh: "Ready pin is high",
	HWReadyLow:  "Ready pin is low",
	HWIRQHigh:   "IRQ pin is high",
	HWIRQLow:    "IRQ pin is low",
	HWDAHigh:    "DA bit is high",
	HWDALow:     "DA bit is low",
	HWFRHigh:    "FR bit is high",
	HWFRLow:     "FR bit is low",
}

// String returns string representation of HWEvent
func (h HWEvent) String() string {
	if name, ok := hwEventNames[h]; ok {
		return name
	}
	return fmt.Sprintf("HWEvent(0x%02X)", uint8(h))
}

// ResetsSession returns true for events after which the module starts over
func (h HWEvent) ResetsSession() bool {
	return h == HWCamOut || h == HWPowerOff
}

// CIS tuple codes (PC Card standard, metaformat)
const (
	TupleNull         uint8 = 0x00
	TupleDevice       uint8 = 0x01
	TupleNoLink       uint8 = 0x14
	TupleVers1        uint8 = 0x15
	TupleConfig       uint8 = 0x1A
	TupleCFTableEntry uint8 = 0x1B
	TupleDeviceOA     uint8 = 0x1D
	TupleDeviceOC     uint8 = 0x1C
	TupleManfID       uint8 = 0x20
	TupleEnd          uint8 = 0xFF
)

var tupleNames = map[uint8]string{
	TupleNull:         "CISTPL_NULL",
	TupleDevice:       "CISTPL_DEVICE",
	TupleNoLink:       "CISTPL_NO_LINK",
	TupleVers1:        "CISTPL_VERS_1",
	TupleConfig:       "CISTPL_CONFIG",
	TupleCFTableEntry: "CISTPL_CFTABLE_ENTRY",
	TupleDeviceOA:     "CISTPL_DEVICE_OA",
	TupleDeviceOC:     "CISTPL_DEVICE_OC",
	TupleManfID:       "CISTPL_MANFID",
	TupleEnd:          "CISTPL_END",
}

// TupleName returns the name of a CIS tuple code
func TupleName(code uint8) string {
	if name, ok := tupleNames[code]; ok {
		return name
	}
	return fmt.Sprintf("CISTPL(0x%02X)", code)
}

// MaxCORAddress is the highest valid configuration option register address
const MaxCORAddress uint16 = 0xFFE
