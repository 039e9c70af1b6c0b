package types

import "fmt"

// Resource id bit masks
const (
	ResourceTypeMask     uint32 = 0xC0000000
	ResourceClassMask    uint32 = 0x3FFF0000
	ResourceSubtypeMask  uint32 = 0x0000FFC0
	ResourceVersionMask  uint32 = 0x0000003F
	PrivateDefinerMask   uint32 = 0x3FF00000
	PrivateIdentityMask  uint32 = 0x000FFFFF
	privateResourceValue uint32 = 0x3
)

// ResourceClass identifies a logical service spoken on a session
type ResourceClass uint16

// Resource classes
const (
	ClassResourceManager    ResourceClass = 0x01
	ClassApplicationInfo    ResourceClass = 0x02
	ClassConditionalAccess  ResourceClass = 0x03
	ClassAuthentication     ResourceClass = 0x10
	ClassHostControl        ResourceClass = 0x20
	ClassDateTime           ResourceClass = 0x24
	ClassMMI                ResourceClass = 0x40
	ClassApplicationMMI     ResourceClass = 0x41
	ClassLowSpeedComms      ResourceClass = 0x60
	ClassContentControl     ResourceClass = 0x8C
	ClassHostLanguage       ResourceClass = 0x8D
	ClassCAMUpgrade         ResourceClass = 0x8E
	ClassOperatorProfile    ResourceClass = 0x8F
	ClassSpecificAppSupport ResourceClass = 0x96
)

var resourceClassNames = map[ResourceClass]string{
	ClassResourceManager:    "Resource Manager",
	ClassApplicationInfo:    "Application Information",
	ClassConditionalAccess:  "Conditional Access Support",
	ClassAuthentication:     "Authentication",
	ClassHostControl:        "Host Control",
	ClassDateTime:           "Date-Time",
	ClassMMI:                "Man-machine interface (MMI)",
	ClassApplicationMMI:     "Application MMI",
	ClassLowSpeedComms:      "Low-Speed Communication",
	ClassContentControl:     "Content Control",
	ClassHostLanguage:       "Host Language and Country",
	ClassCAMUpgrade:         "CAM Upgrade",
	ClassOperatorProfile:    "Operator Profile",
	ClassSpecificAppSupport: "Specific Application Support",
}

// String returns string representation of ResourceClass
func (c ResourceClass) String() string {
	if name, ok := resourceClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(0x%04X)", uint16(c))
}

// ResourceID is the 32-bit identifier carried by session open/create PDUs
type ResourceID uint32

// IsPrivate returns true for private resources (type bits 11)
func (r ResourceID) IsPrivate() bool {
	return (uint32(r)&ResourceTypeMask)>>30 == privateResourceValue
}

// Type returns the 2 type bits
func (r ResourceID) Type() uint8 {
	return uint8((uint32(r) & ResourceTypeMask) >> 30)
}

// Class returns the resource class
func (r ResourceID) Class() ResourceClass {
	return ResourceClass((uint32(r) & ResourceClassMask) >> 16)
}

// Subtype returns the resource type within its class
func (r ResourceID) Subtype() uint16 {
	return uint16((uint32(r) & ResourceSubtypeMask) >> 6)
}

// Version returns the resource version
func (r ResourceID) Version() uint8 {
	return uint8(uint32(r) & ResourceVersionMask)
}

// PrivateDefiner returns the definer of a private resource
func (r ResourceID) PrivateDefiner() uint16 {
	return uint16((uint32(r) & PrivateDefinerMask) >> 20)
}

// PrivateIdentity returns the identity of a private resource
func (r ResourceID) PrivateIdentity() uint32 {
	return uint32(r) & PrivateIdentityMask
}

// String returns string representation of ResourceID
func (r ResourceID) String() string {
	if r.IsPrivate() {
		return fmt.Sprintf("0x%08X (private, definer=0x%03X, identity=0x%05X)",
			uint32(r), r.PrivateDefiner(), r.PrivateIdentity())
	}
	return fmt.Sprintf("0x%08X (%s, type=%d, version=%d)",
		uint32(r), r.Class(), r.Subtype(), r.Version())
}
