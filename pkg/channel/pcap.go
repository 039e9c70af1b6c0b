package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"avaneesh/dvbci-go/pkg/physical"
	"avaneesh/dvbci-go/pkg/types"
)

var ErrLinkType = errors.New("dvbci.channel: capture is not LINKTYPE_DVB_CI")

// PcapSource reads frames from a pcap capture with link type DVB-CI. The
// sequence number of a frame is its 1-based index in the file and the
// timestamp is the capture time. Read returns io.EOF at the end.
type PcapSource struct {
	reader *pcapgo.Reader
	closer io.Closer
	mu     sync.Mutex
	seq    uint64

	stats struct {
		bytesReceived  atomic.Uint64
		framesReceived atomic.Uint64
		readErrors     atomic.Uint64
	}
	closed atomic.Bool
}

// OpenPcap opens a capture file
func OpenPcap(path string) (*PcapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	ps, err := NewPcapSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ps.closer = f
	return ps, nil
}

// NewPcapSource reads a capture from r
func NewPcapSource(r io.Reader) (*PcapSource, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	if reader.LinkType() != physical.LinkTypeDVBCI {
		return nil, fmt.Errorf("%w. link type %d", ErrLinkType, reader.LinkType())
	}
	return &PcapSource{reader: reader}, nil
}

// Read implements FrameSource.Read
func (ps *PcapSource) Read(ctx context.Context) (types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return types.Frame{}, err
	}
	if ps.closed.Load() {
		return types.Frame{}, ErrSourceClosed
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	data, ci, err := ps.reader.ReadPacketData()
	if err != nil {
		if err != io.EOF {
			ps.stats.readErrors.Add(1)
		}
		return types.Frame{}, err
	}
	ps.seq++
	ps.stats.bytesReceived.Add(uint64(len(data)))
	ps.stats.framesReceived.Add(1)
	return types.Frame{Seq: ps.seq, Timestamp: ci.Timestamp, Data: data}, nil
}

// Close implements FrameSource.Close
func (ps *PcapSource) Close() error {
	if !ps.closed.CompareAndSwap(false, true) {
		return nil
	}
	if ps.closer != nil {
		return ps.closer.Close()
	}
	return nil
}

// Statistics implements FrameSource.Statistics
func (ps *PcapSource) Statistics() SourceStats {
	return SourceStats{
		BytesReceived:  ps.stats.bytesReceived.Load(),
		FramesReceived: ps.stats.framesReceived.Load(),
		ReadErrors:     ps.stats.readErrors.Load(),
	}
}

// PcapWriter saves frames to a pcap capture with link type DVB-CI. It is a
// FrameHandler, so a live feed can be recorded next to the analysis.
type PcapWriter struct {
	mu     sync.Mutex
	writer *pcapgo.Writer
	closer io.Closer
	frames uint64
}

// CreatePcap creates a capture file at path
func CreatePcap(path string) (*PcapWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	pw, err := NewPcapWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	pw.closer = f
	return pw, nil
}

// NewPcapWriter writes the capture file header to w
func NewPcapWriter(w io.Writer) (*PcapWriter, error) {
	writer := pcapgo.NewWriter(w)
	if err := writer.WriteFileHeader(MaxRecordSize, physical.LinkTypeDVBCI); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &PcapWriter{writer: writer}, nil
}

// HandleFrame implements FrameHandler
func (pw *PcapWriter) HandleFrame(frame types.Frame) error {
	return pw.WriteFrame(frame)
}

// WriteFrame appends one frame
func (pw *PcapWriter) WriteFrame(frame types.Frame) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     frame.Timestamp,
		CaptureLength: len(frame.Data),
		Length:        len(frame.Data),
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if err := pw.writer.WritePacket(ci, frame.Data); err != nil {
		return err
	}
	pw.frames++
	return nil
}

// Frames returns the number of frames written
func (pw *PcapWriter) Frames() uint64 {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.frames
}

// Close closes the underlying file, if the writer created it
func (pw *PcapWriter) Close() error {
	if pw.closer != nil {
		return pw.closer.Close()
	}
	return nil
}
