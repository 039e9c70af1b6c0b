package transport

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/types"
)

// Tag is a TPDU command (host->module) or response (module->host) tag
type Tag uint8

const (
	TagSB        Tag = 0x80 // Status block; a module->host TPDU starting with it has no header or body
	TagRcv       Tag = 0x81
	TagCreateTC  Tag = 0x82
	TagCTCReply  Tag = 0x83
	TagDeleteTC  Tag = 0x84
	TagDTCReply  Tag = 0x85
	TagRequestTC Tag = 0x86
	TagNewTC     Tag = 0x87
	TagTCError   Tag = 0x88
	TagDataLast  Tag = 0xA0
	TagDataMore  Tag = 0xA1
)

var tagNames = map[Tag]string{
	TagSB:        "T_SB",
	TagRcv:       "T_RCV",
	TagCreateTC:  "T_create_t_c",
	TagCTCReply:  "T_c_t_c_reply",
	TagDeleteTC:  "T_delete_t_c",
	TagDTCReply:  "T_d_t_c_reply",
	TagRequestTC: "T_request_t_c",
	TagNewTC:     "T_new_t_c",
	TagTCError:   "T_t_c_error",
	TagDataLast:  "T_data_last",
	TagDataMore:  "T_data_more",
}

// String returns string representation of Tag
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(0x%02X)", uint8(t))
}

// IsData returns true for the tags that carry genuine data transfer
func (t Tag) IsData() bool {
	return t == TagRcv || t == TagDataLast || t == TagDataMore
}

// Command tags accepted from the host
var hostTags = map[Tag]bool{
	TagRcv:      true,
	TagCreateTC: true,
	TagDeleteTC: true,
	TagDTCReply: true,
	TagNewTC:    true,
	TagTCError:  true,
	TagDataLast: true,
	TagDataMore: true,
}

// Response tags accepted from the module
var moduleTags = map[Tag]bool{
	TagCTCReply:  true,
	TagDeleteTC:  true,
	TagDTCReply:  true,
	TagRequestTC: true,
	TagDataLast:  true,
	TagDataMore:  true,
}

// ValidFor reports whether t may be sent in direction dir
func (t Tag) ValidFor(dir types.Direction) bool {
	if dir == types.DirectionModuleToHost {
		return moduleTags[t]
	}
	return hostTags[t]
}

// Status block values
const (
	SBNoMessage        uint8 = 0x00
	SBMessageAvailable uint8 = 0x80
)

// StatusBlockLength is the fixed body length of a status block
const StatusBlockLength = 2

// TCErrorNoTC is the only t_c_error code defined
const TCErrorNoTC uint8 = 0x01
