package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

const closeMMIDelay = 0x01

const displayControlSetMMIMode = 0x01

const displayReplyMMIModeAck = 0x01

const answIDAnswer = 0x01

var (
	closeMMICommands = map[uint8]string{
		0x00: "immediate",
		0x01: "delay",
	}
	displayControlCommands = map[uint8]string{
		0x01: "set_mmi_mode",
		0x02: "get_display_character_tables",
		0x03: "get_input_character_tables",
		0x04: "get_overlay_graphics_characteristics",
		0x05: "get_full_screen_graphics_characteristics",
	}
	mmiModes = map[uint8]string{
		0x01: "high level",
		0x02: "low level overlay graphics",
		0x03: "low level full screen graphics",
	}
	displayReplies = map[uint8]string{
		0x01: "mmi_mode_ack",
		0x02: "list_display_character_tables",
		0x03: "list_input_character_tables",
		0x04: "list_graphic_overlay_characteristics",
		0x05: "list_full_screen_graphic_characteristics",
		0xF0: "unknown display_control_cmd",
		0xF1: "unknown mmi_mode",
		0xF2: "unknown character_table",
	}
	keypadCommands = map[uint8]string{
		0x01: "intercept_all",
		0x02: "ignore_all",
		0x03: "intercept_selected",
		0x04: "ignore_selected",
		0x05: "reject_keypad",
	}
	answIDs = map[uint8]string{
		0x00: "cancel",
		0x01: "answer",
	}
)

// Positions of the text objects that open a menu or list
var menuTextNames = []string{"title", "subtitle", "bottom"}

func decodeCloseMMI(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if cmd := r.named8("close_mmi_cmd_id", closeMMICommands); cmd == closeMMIDelay && r.ok() && !r.empty() {
		r.u8("close_mmi_delay")
	}
	return r.err
}

func decodeDisplayControl(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if cmd := r.named8("display_control_cmd", displayControlCommands); cmd == displayControlSetMMIMode && r.ok() {
		r.named8("mmi_mode", mmiModes)
	}
	return r.err
}

func decodeDisplayReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if id := r.named8("display_reply_id", displayReplies); id == displayReplyMMIModeAck && r.ok() {
		r.named8("mmi_mode", mmiModes)
		return r.err
	}
	r.rest("display_reply_data")
	return r.err
}

// decodeText decodes a text_last or text_more body
func decodeText(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.text("text", r.left())
	return r.err
}

func decodeKeypadControl(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("keypad_control_cmd", keypadCommands)
	for !r.empty() {
		r.u8("key_code")
	}
	return r.err
}

func decodeKeypress(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("key_code")
	return r.err
}

func decodeEnq(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("blind_answer", 1)
	if ok {
		rec.Field("blind_answer", off, 1, b[0]&0x01 == 1)
	}
	r.u8("answer_text_length")
	r.text("text", r.left())
	return r.err
}

func decodeAnsw(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if id := r.named8("answ_id", answIDs); id == answIDAnswer && r.ok() {
		r.text("text", r.left())
	}
	return r.err
}

// decodeMenu decodes menu_last/more and list_last/more: a choice count
// followed by nested text objects
func decodeMenu(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	choices := r.u8("choice_nb")
	items := 0
	for i := 0; !r.empty(); i++ {
		name := "item"
		if i < len(menuTextNames) {
			name = menuTextNames[i]
		} else {
			items++
		}
		r.textObject(name)
	}
	if r.ok() && choices != 0xFF && items != int(choices) {
		rec.Advise(types.ErrInvalidValue, m.Body.Offset(), 0, "choice_nb %d, %d items present", choices, items)
	}
	return r.err
}

// textObject reads one nested text_last or text_more APDU
func (r *reader) textObject(name string) {
	off := r.c.Offset()
	_, b, ok := r.raw(name+".tag", 3)
	if !ok {
		return
	}
	tag := Tag(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
	n := r.length(name + ".length")
	if !r.ok() {
		return
	}
	if tag != TagTextLast && tag != TagTextMore {
		r.rec.Advise(types.ErrUnknownTag, off, 3, "%s is %s, expected a text object", name, tag)
		r.bytes(name, n)
		return
	}
	r.text(name, n)
}

func decodeMenuAnsw(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if choice := r.u8("choice_ref"); r.ok() && choice == 0 {
		rec.Field("choice", m.Body.Offset()-1, 1, "cancelled")
	}
	return r.err
}
