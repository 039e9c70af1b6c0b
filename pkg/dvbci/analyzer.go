// Package dvbci ties the DVB-CI layers together. An Analyzer demultiplexes
// capture records by their pseudo-header event and drives each data
// transfer through the link, transport, session and application layers,
// keeping the capture state in a SessionContext.
package dvbci

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/q191201771/naza/pkg/nazabytes"

	"avaneesh/dvbci-go/pkg/app"
	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/link"
	"avaneesh/dvbci-go/pkg/physical"
	"avaneesh/dvbci-go/pkg/session"
	"avaneesh/dvbci-go/pkg/transport"
	"avaneesh/dvbci-go/pkg/types"
)

// frameDumpLimit bounds the hex dump logged per frame in frame debug mode
const frameDumpLimit = 256

// Result is everything decoded from one frame. Layers that were not
// reached are nil.
type Result struct {
	Frame   types.Frame
	Header  *physical.PseudoHeader
	Dir     types.Direction
	LPDU    *link.LPDU
	TPDU    *transport.TPDU
	SPDU    *session.SPDU
	APDU    *app.Message
	Records []types.Record
	Err     error // Fatal error that stopped decoding of this frame
}

// String returns a string representation of the result
func (r *Result) String() string {
	s := fmt.Sprintf("Result{Frame=%d, Records=%d", r.Frame.Seq, len(r.Records))
	if r.APDU != nil {
		s += ", " + r.APDU.String()
	} else if r.SPDU != nil {
		s += ", " + r.SPDU.String()
	}
	if r.Err != nil {
		s += fmt.Sprintf(", Err=%v", r.Err)
	}
	return s + "}"
}

// ResultHandler receives the result of every frame an analyzer processed
type ResultHandler interface {
	OnResult(res *Result)
}

// ResultHandlerFunc adapts a function to ResultHandler
type ResultHandlerFunc func(res *Result)

// OnResult calls f(res)
func (f ResultHandlerFunc) OnResult(res *Result) {
	f(res)
}

// Analyzer processes the frames of one capture in order. Processing is
// serialized; concurrent callers are safe but gain nothing.
type Analyzer struct {
	mu      sync.Mutex
	ctx     *SessionContext
	decoder *app.Decoder
	stats   Statistics
	logger  logger.Logger

	lastSeq uint64
	started bool
}

// New creates an analyzer with a fresh session context around decoder
func New(decoder *app.Decoder, log logger.Logger) *Analyzer {
	if decoder == nil {
		decoder = app.NewDecoder()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Analyzer{
		ctx:     NewSessionContext(),
		decoder: decoder,
		logger:  log,
	}
}

// Context returns the session context. It must not be modified while
// frames are being processed.
func (a *Analyzer) Context() *SessionContext {
	return a.ctx
}

// Decoder returns the application layer decoder
func (a *Analyzer) Decoder() *app.Decoder {
	return a.decoder
}

// Statistics returns analyzer statistics
func (a *Analyzer) Statistics() *Statistics {
	return &a.stats
}

// ResetSession starts a new capture lifecycle: all reassembly and circuit
// state is discarded
func (a *Analyzer) ResetSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Analyzer) resetLocked() {
	a.ctx.Reset()
	a.started = false
	a.lastSeq = 0
	a.stats.sessionReset()
}

// ProcessFrame decodes one capture record. A frame that is not a DVB-CI
// record is rejected: the error wraps physical.ErrNotDVBCI and no state
// changes. Protocol errors inside a DVB-CI record are not returned; they
// stop decoding of that frame and are reported in Result.Err and the
// records.
func (a *Analyzer) ProcessFrame(frame types.Frame) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.frame()
	if logger.FrameDebug() {
		a.logger.Debug("frame %d, %d bytes\n%s", frame.Seq, len(frame.Data),
			hex.Dump(nazabytes.Prefix(frame.Data, frameDumpLimit)))
	}

	res := &Result{Frame: frame}
	rec := types.NewRecorder(frame.Seq)
	prec := rec.At(types.LayerPhysical)

	h, c, err := physical.Decode(prec, frame.Data)
	if h == nil {
		a.stats.rejected()
		a.logger.Debug("frame %d rejected: %v", frame.Seq, err)
		return res, fmt.Errorf("frame %d: %w", frame.Seq, err)
	}
	res.Header = h
	res.Dir = h.Event.Direction()

	if a.started && frame.Seq < a.lastSeq {
		prec.Advise(types.ErrOutOfOrder, 0, 0, "frame %d after frame %d, processed as given", frame.Seq, a.lastSeq)
	}
	if !a.started || frame.Seq > a.lastSeq {
		a.lastSeq = frame.Seq
	}
	a.started = true

	if err == nil {
		err = a.dispatch(rec, h, c, res)
	}

	res.Records = rec.Records()
	a.stats.advisories(rec.Count(types.RecordAdvisory))
	if err != nil {
		res.Err = err
		a.stats.fatal()
		a.logger.Warn("frame %d: %v", frame.Seq, err)
	}
	return res, nil
}

func (a *Analyzer) dispatch(rec *types.Recorder, h *physical.PseudoHeader, c *ber.Cursor, res *Result) error {
	prec := rec.At(types.LayerPhysical)

	switch h.Event {
	case physical.EventCISRead:
		return physical.DecodeCIS(prec, c)

	case physical.EventCORWrite:
		return physical.DecodeCOR(prec, c)

	case physical.EventHardware:
		ev, err := physical.DecodeHWEvent(prec, c)
		if err != nil {
			return err
		}
		if ev.ResetsSession() {
			a.resetLocked()
			prec.Event("session_reset", physical.HeaderSize, 1, ev.String())
			a.logger.Info("frame %d: %s, session state reset", rec.Frame(), ev)
		}
		return nil

	default:
		return a.processData(rec, c, res)
	}
}

// processData drives one data transfer frame up the stack. Each layer hands
// the next one a complete PDU or stops the frame.
func (a *Analyzer) processData(rec *types.Recorder, c *ber.Cursor, res *Result) error {
	seq := rec.Frame()
	dir := res.Dir

	lrec := rec.At(types.LayerLink)
	if c.Len() == link.NegotiationSize {
		return a.ctx.BufferSize.Negotiate(lrec, c, dir)
	}

	lpdu, tpdu, err := link.Receive(lrec, c, seq, a.ctx.LinkTable, &a.ctx.BufferSize)
	res.LPDU = lpdu
	if err != nil || tpdu == nil {
		return err
	}

	trec := rec.At(types.LayerTransport).From(types.SourceLink)
	t, spdu, err := transport.Receive(trec, ber.NewCursor(tpdu), dir, lpdu.Tcid, seq, a.ctx.TransportTable)
	res.TPDU = t
	if err != nil || spdu == nil {
		return err
	}

	srec := rec.At(types.LayerSession).From(types.SourceTransport)
	s, circ, err := session.Receive(srec, ber.NewCursor(spdu), dir, seq, a.ctx.Circuits)
	res.SPDU = s
	if err != nil {
		return err
	}
	if s.Tag != session.TagSessionNumber || s.Payload == nil || s.Payload.Empty() {
		return nil
	}

	arec := rec.At(types.LayerApplication).From(types.SourceTransport)
	msg, err := a.decoder.Decode(arec, s.Payload, dir, circ)
	res.APDU = msg
	if msg != nil {
		a.stats.apdu()
	}
	return err
}

// Handler returns a channel.FrameHandler that processes frames with a and
// passes results to h. Rejected frames are returned as errors.
func (a *Analyzer) Handler(h ResultHandler) *FrameHandler {
	return &FrameHandler{analyzer: a, results: h}
}

// FrameHandler feeds frames read by a channel into an analyzer
type FrameHandler struct {
	analyzer *Analyzer
	results  ResultHandler
}

// HandleFrame processes frame and hands the result on
func (f *FrameHandler) HandleFrame(frame types.Frame) error {
	res, err := f.analyzer.ProcessFrame(frame)
	if err != nil {
		return err
	}
	if f.results != nil {
		f.results.OnResult(res)
	}
	return nil
}

// ResetSession resets the analyzer when the channel starts a new capture
func (f *FrameHandler) ResetSession() {
	f.analyzer.ResetSession()
}
