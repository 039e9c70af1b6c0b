package app

import "fmt"

// Tag is a 3-byte APDU tag
type Tag uint32

// Resource manager
const (
	TagProfileEnq    Tag = 0x9F8010
	TagProfileReply  Tag = 0x9F8011
	TagProfileChange Tag = 0x9F8012
)

// Application information
const (
	TagAppInfoEnq        Tag = 0x9F8020
	TagAppInfo           Tag = 0x9F8021
	TagEnterMenu         Tag = 0x9F8022
	TagRequestCicamReset Tag = 0x9F8023
	TagDataRateInfo      Tag = 0x9F8024
)

// Conditional access support
const (
	TagCAInfoEnq  Tag = 0x9F8030
	TagCAInfo     Tag = 0x9F8031
	TagCAPMT      Tag = 0x9F8032
	TagCAPMTReply Tag = 0x9F8033
)

// Authentication
const (
	TagAuthReq  Tag = 0x9F8200
	TagAuthResp Tag = 0x9F8201
)

// Host control
const (
	TagTune             Tag = 0x9F8400
	TagReplace          Tag = 0x9F8401
	TagClearReplace     Tag = 0x9F8402
	TagAskRelease       Tag = 0x9F8403
	TagTuneBroadcastReq Tag = 0x9F8404
	TagTuneReply        Tag = 0x9F8405
	TagAskReleaseReply  Tag = 0x9F8406
)

// Date-time
const (
	TagDateTimeEnq Tag = 0x9F8440
	TagDateTime    Tag = 0x9F8441
)

// High level MMI
const (
	TagCloseMMI       Tag = 0x9F8800
	TagDisplayControl Tag = 0x9F8801
	TagDisplayReply   Tag = 0x9F8802
	TagTextLast       Tag = 0x9F8803
	TagTextMore       Tag = 0x9F8804
	TagKeypadControl  Tag = 0x9F8805
	TagKeypress       Tag = 0x9F8806
	TagEnq            Tag = 0x9F8807
	TagAnsw           Tag = 0x9F8808
	TagMenuLast       Tag = 0x9F8809
	TagMenuMore       Tag = 0x9F880A
	TagMenuAnsw       Tag = 0x9F880B
	TagListLast       Tag = 0x9F880C
	TagListMore       Tag = 0x9F880D
)

// Host language and country
const (
	TagHostCountryEnq  Tag = 0x9F8100
	TagHostCountry     Tag = 0x9F8101
	TagHostLanguageEnq Tag = 0x9F8110
	TagHostLanguage    Tag = 0x9F8111
)

// CAM upgrade
const (
	TagCamFirmwareUpgrade         Tag = 0x9F9D01
	TagCamFirmwareUpgradeReply    Tag = 0x9F9D02
	TagCamFirmwareUpgradeProgress Tag = 0x9F9D03
	TagCamFirmwareUpgradeComplete Tag = 0x9F9D04
)

// Content control
const (
	TagCCOpenReq              Tag = 0x9F9001
	TagCCOpenCnf              Tag = 0x9F9002
	TagCCDataReq              Tag = 0x9F9003
	TagCCDataCnf              Tag = 0x9F9004
	TagCCSyncReq              Tag = 0x9F9005
	TagCCSyncCnf              Tag = 0x9F9006
	TagCCSACDataReq           Tag = 0x9F9007
	TagCCSACDataCnf           Tag = 0x9F9008
	TagCCSACSyncReq           Tag = 0x9F9009
	TagCCSACSyncCnf           Tag = 0x9F9010
	TagCCPINCapabilitiesReq   Tag = 0x9F9011
	TagCCPINCapabilitiesReply Tag = 0x9F9012
	TagCCPINCmd               Tag = 0x9F9013
	TagCCPINReply             Tag = 0x9F9014
	TagCCPINEvent             Tag = 0x9F9015
	TagCCPINPlayback          Tag = 0x9F9016
	TagCCPINMMIReq            Tag = 0x9F9017
)

// Application MMI
const (
	TagRequestStart    Tag = 0x9F8000
	TagRequestStartAck Tag = 0x9F8001
	TagFileRequest     Tag = 0x9F8002
	TagFileAcknowledge Tag = 0x9F8003
	TagAppAbortRequest Tag = 0x9F8004
	TagAppAbortAck     Tag = 0x9F8005
)

// Low-speed communication
const (
	TagCommsCmd             Tag = 0x9F8C00
	TagConnectionDescriptor Tag = 0x9F8C01
	TagCommsReply           Tag = 0x9F8C02
	TagCommsSendLast        Tag = 0x9F8C03
	TagCommsSendMore        Tag = 0x9F8C04
	TagCommsRcvLast         Tag = 0x9F8C05
	TagCommsRcvMore         Tag = 0x9F8C06
)

// Operator profile
const (
	TagOperatorStatusReq      Tag = 0x9F9C00
	TagOperatorStatus         Tag = 0x9F9C01
	TagOperatorNITReq         Tag = 0x9F9C02
	TagOperatorNIT            Tag = 0x9F9C03
	TagOperatorInfoReq        Tag = 0x9F9C04
	TagOperatorInfo           Tag = 0x9F9C05
	TagOperatorSearchStart    Tag = 0x9F9C06
	TagOperatorSearchStatus   Tag = 0x9F9C07
	TagOperatorExit           Tag = 0x9F9C08
	TagOperatorTune           Tag = 0x9F9C09
	TagOperatorTuneStatus     Tag = 0x9F9C0A
	TagOperatorEntitlementAck Tag = 0x9F9C0B
	TagOperatorSearchCancel   Tag = 0x9F9C0C
)

// Specific application support
const (
	TagSASConnectRqst Tag = 0x9F9A00
	TagSASConnectCnf  Tag = 0x9F9A01
	TagSASAsyncMsg    Tag = 0x9F9A07
)

// String returns the APDU name, or the tag value if it is unknown
func (t Tag) String() string {
	if d, ok := descriptorTable[t]; ok {
		return d.Name
	}
	return fmt.Sprintf("Tag(0x%06X)", uint32(t))
}
