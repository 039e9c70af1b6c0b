// Command dvbcidump decodes a DVB-CI capture or a live probe feed and
// writes every decoded record as one JSON object per line.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"avaneesh/dvbci-go/pkg/channel"
	"avaneesh/dvbci-go/pkg/dvbci"
	"avaneesh/dvbci-go/pkg/types"
)

type options struct {
	configPath string
	pcapPath   string
	tcpAddr    string
	udpAddr    string
	quicAddr   string
	listen     bool
	savePath   string
	frameDebug bool
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to YAML configuration file")
	flag.StringVar(&opts.pcapPath, "pcap", "", "decode a pcap capture file")
	flag.StringVar(&opts.tcpAddr, "tcp", "", "receive a live feed over TCP from host:port")
	flag.StringVar(&opts.udpAddr, "udp", "", "receive a live feed over UDP on host:port")
	flag.StringVar(&opts.quicAddr, "quic", "", "receive a live feed over QUIC from host:port")
	flag.BoolVar(&opts.listen, "listen", false, "listen for the probe instead of connecting to it (tcp, quic)")
	flag.StringVar(&opts.savePath, "save", "", "also write every received frame to this pcap file")
	flag.BoolVar(&opts.frameDebug, "frame-debug", false, "log a hex dump of every frame")
	flag.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "dvbcidump: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := dvbci.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = dvbci.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.frameDebug {
		cfg.FrameDebug = true
	}

	level := dvbci.ParseLogLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		dvbci.SetLogFile(level, cfg.LogFile)
	} else {
		dvbci.SetLogLevel(level)
	}
	dvbci.EnableFrameDebug(cfg.FrameDebug)
	log := dvbci.Logger()

	source, err := openSource(opts)
	if err != nil {
		return err
	}

	analyzer, err := dvbci.NewAnalyzer(cfg, log)
	if err != nil {
		source.Close()
		return err
	}

	var recorders []*channel.PcapWriter
	if opts.savePath != "" {
		w, err := channel.CreatePcap(opts.savePath)
		if err != nil {
			source.Close()
			return err
		}
		defer w.Close()
		recorders = append(recorders, w)
	}

	out := newRecordWriter(cfg.Output)
	defer out.Close()

	manager := dvbci.NewManagerWithLogger(log)
	defer manager.Shutdown()

	ch, err := manager.AddChannel("capture", source, analyzer, out, recorders...)
	if err != nil {
		return nazaerrors.Wrap(err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ch.Done():
	case sig := <-shutdown:
		log.Info("dvbcidump: %s received, stopping", sig)
	}
	runErr := ch.Err()
	manager.Shutdown()

	stats := analyzer.Statistics()
	log.Info("dvbcidump: frames=%d rejected=%d fatal=%d advisories=%d apdus=%d resets=%d",
		stats.GetFrames(), stats.GetRejected(), stats.GetFatal(),
		stats.GetAdvisories(), stats.GetAPDUs(), stats.GetSessionResets())

	if err := out.Err(); err != nil {
		return err
	}
	return runErr
}

func openSource(opts options) (channel.FrameSource, error) {
	n := 0
	for _, s := range []string{opts.pcapPath, opts.tcpAddr, opts.udpAddr, opts.quicAddr} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return nil, errors.New("exactly one of -pcap, -tcp, -udp or -quic is required")
	}

	switch {
	case opts.pcapPath != "":
		return channel.OpenPcap(opts.pcapPath)
	case opts.tcpAddr != "":
		return channel.NewTCPSource(channel.TCPSourceConfig{
			Address:        opts.tcpAddr,
			IsServer:       opts.listen,
			ReconnectDelay: 5 * time.Second,
		})
	case opts.udpAddr != "":
		return channel.NewUDPSource(channel.UDPSourceConfig{
			Address: opts.udpAddr,
		})
	default:
		return channel.NewQUICSource(channel.QUICSourceConfig{
			Address:        opts.quicAddr,
			IsServer:       opts.listen,
			ReconnectDelay: 5 * time.Second,
		})
	}
}

// recordWriter encodes the records of every result as NDJSON. It is called
// from the channel goroutine; the first write error is kept and later
// results are dropped.
type recordWriter struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
	err error
}

func newRecordWriter(cfg dvbci.OutputConfig) *recordWriter {
	var w io.WriteCloser = nopCloser{os.Stdout}
	if cfg.Path != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	return &recordWriter{w: w, enc: json.NewEncoder(w)}
}

type line struct {
	Time time.Time `json:"time"`
	types.Record
}

// OnResult implements dvbci.ResultHandler
func (r *recordWriter) OnResult(res *dvbci.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	for _, rec := range res.Records {
		if err := r.enc.Encode(line{Time: res.Frame.Timestamp, Record: rec}); err != nil {
			r.err = nazaerrors.Wrap(err)
			return
		}
	}
}

func (r *recordWriter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recordWriter) Close() error {
	return r.w.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
