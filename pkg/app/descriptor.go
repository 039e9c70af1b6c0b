package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

// LengthAny marks a descriptor that only has a minimum length
const LengthAny = -1

// decodeFunc decodes the body of one APDU
type decodeFunc func(d *Decoder, rec *types.Recorder, m *Message) error

// Descriptor is the static metadata of one APDU tag
type Descriptor struct {
	Tag         Tag
	Name        string
	MinLength   int
	ExactLength int // LengthAny unless the body has a fixed size
	Dir         types.Direction
	Class       types.ResourceClass
	MinVersion  uint8
	decode      decodeFunc
}

// HasDecoder returns true if the body of the APDU is decoded further
func (d *Descriptor) HasDecoder() bool {
	return d.decode != nil
}

const (
	dirAny = types.DirectionAny
	h2m    = types.DirectionHostToModule
	m2h    = types.DirectionModuleToHost
)

// exact builds a descriptor with a fixed body length
func exact(tag Tag, name string, length int, dir types.Direction, class types.ResourceClass, version uint8, fn decodeFunc) Descriptor {
	return Descriptor{Tag: tag, Name: name, MinLength: length, ExactLength: length, Dir: dir, Class: class, MinVersion: version, decode: fn}
}

// atLeast builds a descriptor with a minimum body length
func atLeast(tag Tag, name string, length int, dir types.Direction, class types.ResourceClass, version uint8, fn decodeFunc) Descriptor {
	return Descriptor{Tag: tag, Name: name, MinLength: length, ExactLength: LengthAny, Dir: dir, Class: class, MinVersion: version, decode: fn}
}

var descriptorTable map[Tag]*Descriptor

func init() {
	var (
		rm   = types.ClassResourceManager
		ai   = types.ClassApplicationInfo
		ca   = types.ClassConditionalAccess
		auth = types.ClassAuthentication
		hc   = types.ClassHostControl
		dt   = types.ClassDateTime
		mmi  = types.ClassMMI
		hlc  = types.ClassHostLanguage
		cup  = types.ClassCAMUpgrade
		cc   = types.ClassContentControl
		ammi = types.ClassApplicationMMI
		lsc  = types.ClassLowSpeedComms
		opp  = types.ClassOperatorProfile
		sas  = types.ClassSpecificAppSupport
	)

	list := []Descriptor{
		exact(TagProfileEnq, "profile_enq", 0, dirAny, rm, 1, nil),
		atLeast(TagProfileReply, "profile_reply", 0, dirAny, rm, 1, decodeProfileReply),
		exact(TagProfileChange, "profile_change", 0, dirAny, rm, 1, nil),

		exact(TagAppInfoEnq, "application_info_enq", 0, h2m, ai, 1, nil),
		atLeast(TagAppInfo, "application_info", 6, m2h, ai, 1, decodeAppInfo),
		exact(TagEnterMenu, "enter_menu", 0, h2m, ai, 1, nil),
		exact(TagRequestCicamReset, "request_cicam_reset", 0, m2h, ai, 2, nil),
		exact(TagDataRateInfo, "data_rate_info", 1, h2m, ai, 2, decodeDataRateInfo),

		exact(TagCAInfoEnq, "ca_info_enq", 0, h2m, ca, 1, nil),
		atLeast(TagCAInfo, "ca_info", 0, m2h, ca, 1, decodeCAInfo),
		atLeast(TagCAPMT, "ca_pmt", 6, h2m, ca, 1, decodeCAPMT),
		atLeast(TagCAPMTReply, "ca_pmt_reply", 4, m2h, ca, 1, decodeCAPMTReply),

		atLeast(TagAuthReq, "auth_req", 2, dirAny, auth, 1, decodeAuth),
		atLeast(TagAuthResp, "auth_resp", 2, dirAny, auth, 1, decodeAuth),

		exact(TagTune, "tune", 8, m2h, hc, 1, decodeTune),
		exact(TagReplace, "replace", 5, m2h, hc, 1, decodeReplace),
		exact(TagClearReplace, "clear_replace", 1, m2h, hc, 1, decodeClearReplace),
		exact(TagAskRelease, "ask_release", 0, h2m, hc, 1, nil),
		atLeast(TagTuneBroadcastReq, "tune_broadcast_req", 5, m2h, hc, 2, decodeTuneBroadcastReq),
		exact(TagTuneReply, "tune_reply", 1, h2m, hc, 2, decodeTuneReply),
		exact(TagAskReleaseReply, "ask_release_reply", 1, m2h, hc, 2, decodeAskReleaseReply),

		exact(TagDateTimeEnq, "date_time_enq", 1, m2h, dt, 1, decodeDateTimeEnq),
		atLeast(TagDateTime, "date_time", 5, h2m, dt, 1, decodeDateTime),

		atLeast(TagCloseMMI, "close_mmi", 1, dirAny, mmi, 1, decodeCloseMMI),
		atLeast(TagDisplayControl, "display_control", 1, m2h, mmi, 1, decodeDisplayControl),
		atLeast(TagDisplayReply, "display_reply", 1, h2m, mmi, 1, decodeDisplayReply),
		atLeast(TagTextLast, "text_last", 0, m2h, mmi, 1, decodeText),
		atLeast(TagTextMore, "text_more", 0, m2h, mmi, 1, decodeText),
		atLeast(TagKeypadControl, "keypad_control", 1, m2h, mmi, 1, decodeKeypadControl),
		exact(TagKeypress, "keypress", 1, h2m, mmi, 1, decodeKeypress),
		atLeast(TagEnq, "enq", 2, m2h, mmi, 1, decodeEnq),
		atLeast(TagAnsw, "answ", 1, h2m, mmi, 1, decodeAnsw),
		atLeast(TagMenuLast, "menu_last", 1, m2h, mmi, 1, decodeMenu),
		atLeast(TagMenuMore, "menu_more", 1, m2h, mmi, 1, decodeMenu),
		exact(TagMenuAnsw, "menu_answ", 1, h2m, mmi, 1, decodeMenuAnsw),
		atLeast(TagListLast, "list_last", 1, m2h, mmi, 1, decodeMenu),
		atLeast(TagListMore, "list_more", 1, m2h, mmi, 1, decodeMenu),

		exact(TagHostCountryEnq, "host_country_enq", 0, m2h, hlc, 1, nil),
		exact(TagHostCountry, "host_country", 3, h2m, hlc, 1, decodeCountry),
		exact(TagHostLanguageEnq, "host_language_enq", 0, m2h, hlc, 1, nil),
		exact(TagHostLanguage, "host_language", 3, h2m, hlc, 1, decodeLanguage),

		exact(TagCamFirmwareUpgrade, "cam_firmware_upgrade", 3, m2h, cup, 1, decodeFirmwareUpgrade),
		exact(TagCamFirmwareUpgradeReply, "cam_firmware_upgrade_reply", 1, h2m, cup, 1, decodeFirmwareUpgradeReply),
		exact(TagCamFirmwareUpgradeProgress, "cam_firmware_upgrade_progress", 1, m2h, cup, 1, decodeFirmwareUpgradeProgress),
		exact(TagCamFirmwareUpgradeComplete, "cam_firmware_upgrade_complete", 1, m2h, cup, 1, decodeFirmwareUpgradeComplete),

		exact(TagCCOpenReq, "cc_open_req", 0, m2h, cc, 1, nil),
		exact(TagCCOpenCnf, "cc_open_cnf", 1, h2m, cc, 1, decodeCCOpenCnf),
		atLeast(TagCCDataReq, "cc_data_req", 2, m2h, cc, 1, decodeCCData),
		atLeast(TagCCDataCnf, "cc_data_cnf", 2, h2m, cc, 1, decodeCCData),
		exact(TagCCSyncReq, "cc_sync_req", 0, m2h, cc, 1, nil),
		exact(TagCCSyncCnf, "cc_sync_cnf", 1, h2m, cc, 1, decodeCCStatus),
		atLeast(TagCCSACDataReq, "cc_sac_data_req", sacHeaderSize, m2h, cc, 1, decodeSAC),
		atLeast(TagCCSACDataCnf, "cc_sac_data_cnf", sacHeaderSize, h2m, cc, 1, decodeSAC),
		atLeast(TagCCSACSyncReq, "cc_sac_sync_req", sacHeaderSize, m2h, cc, 1, decodeSAC),
		atLeast(TagCCSACSyncCnf, "cc_sac_sync_cnf", sacHeaderSize, h2m, cc, 1, decodeSAC),
		exact(TagCCPINCapabilitiesReq, "cc_PIN_capabilities_req", 0, h2m, cc, 2, nil),
		atLeast(TagCCPINCapabilitiesReply, "cc_PIN_capabilities_reply", 1, m2h, cc, 2, decodePINCapabilitiesReply),
		atLeast(TagCCPINCmd, "cc_PIN_cmd", 1, h2m, cc, 2, decodePINCmd),
		exact(TagCCPINReply, "cc_PIN_reply", 1, m2h, cc, 2, decodePINReply),
		atLeast(TagCCPINEvent, "cc_PIN_event", 10, m2h, cc, 2, decodePINEvent),
		atLeast(TagCCPINPlayback, "cc_PIN_playback", 1, h2m, cc, 2, decodeOpaqueBody),
		atLeast(TagCCPINMMIReq, "cc_PIN_MMI_req", 1, h2m, cc, 2, decodePINCmd),

		atLeast(TagRequestStart, "RequestStart", 2, m2h, ammi, 1, decodeRequestStart),
		exact(TagRequestStartAck, "RequestStartAck", 1, h2m, ammi, 1, decodeRequestStartAck),
		atLeast(TagFileRequest, "FileRequest", 1, m2h, ammi, 1, decodeFileRequest),
		atLeast(TagFileAcknowledge, "FileAcknowledge", 2, h2m, ammi, 1, decodeFileAcknowledge),
		atLeast(TagAppAbortRequest, "AppAbortRequest", 0, dirAny, ammi, 1, decodeAbortCode),
		atLeast(TagAppAbortAck, "AppAbortAck", 0, dirAny, ammi, 1, decodeAbortCode),

		atLeast(TagCommsCmd, "comms_cmd", 1, m2h, lsc, 1, decodeCommsCmd),
		atLeast(TagConnectionDescriptor, "connection_descriptor", 1, dirAny, lsc, 1, decodeConnectionDescriptorAPDU),
		exact(TagCommsReply, "comms_reply", 2, h2m, lsc, 1, decodeCommsReply),
		atLeast(TagCommsSendLast, "comms_send_last", 1, m2h, lsc, 1, decodeCommsData),
		atLeast(TagCommsSendMore, "comms_send_more", 1, m2h, lsc, 1, decodeCommsData),
		atLeast(TagCommsRcvLast, "comms_rcv_last", 1, h2m, lsc, 1, decodeCommsData),
		atLeast(TagCommsRcvMore, "comms_rcv_more", 1, h2m, lsc, 1, decodeCommsData),

		exact(TagOperatorStatusReq, "operator_status_req", 0, h2m, opp, 1, nil),
		exact(TagOperatorStatus, "operator_status", 6, m2h, opp, 1, decodeOperatorStatus),
		exact(TagOperatorNITReq, "operator_nit_req", 0, h2m, opp, 1, nil),
		atLeast(TagOperatorNIT, "operator_nit", 2, m2h, opp, 1, decodeOperatorNIT),
		exact(TagOperatorInfoReq, "operator_info_req", 0, h2m, opp, 1, nil),
		atLeast(TagOperatorInfo, "operator_info", 1, m2h, opp, 1, decodeOperatorInfo),
		atLeast(TagOperatorSearchStart, "operator_search_start", 3, h2m, opp, 1, decodeOperatorSearchStart),
		exact(TagOperatorSearchStatus, "operator_search_status", 6, m2h, opp, 1, decodeOperatorStatus),
		exact(TagOperatorExit, "operator_exit", 0, h2m, opp, 1, nil),
		atLeast(TagOperatorTune, "operator_tune", 2, m2h, opp, 1, decodeOperatorTune),
		atLeast(TagOperatorTuneStatus, "operator_tune_status", 6, h2m, opp, 1, decodeOperatorTuneStatus),
		exact(TagOperatorEntitlementAck, "operator_entitlement_ack", 0, h2m, opp, 1, nil),
		exact(TagOperatorSearchCancel, "operator_search_cancel", 0, h2m, opp, 1, nil),

		exact(TagSASConnectRqst, "sas_connect_rqst", 8, h2m, sas, 1, decodeSASConnectRqst),
		exact(TagSASConnectCnf, "sas_connect_cnf", 9, m2h, sas, 1, decodeSASConnectCnf),
		atLeast(TagSASAsyncMsg, "sas_async_msg", 3, dirAny, sas, 1, decodeSASAsyncMsg),
	}

	descriptorTable = make(map[Tag]*Descriptor, len(list))
	for i := range list {
		descriptorTable[list[i].Tag] = &list[i]
	}
}

// Lookup returns the descriptor of tag
func Lookup(tag Tag) (*Descriptor, bool) {
	d, ok := descriptorTable[tag]
	return d, ok
}

// Descriptors returns the number of known APDU tags
func Descriptors() int {
	return len(descriptorTable)
}
