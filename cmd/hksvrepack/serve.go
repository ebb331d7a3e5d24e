package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/coreos/go-systemd/daemon"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/TA2k/hksvrepack/internal/config"
	"github.com/TA2k/hksvrepack/internal/diag"
	"github.com/TA2k/hksvrepack/pkg/rtph264"
)

type serveOptions struct {
	socketPath    string
	maxPacketSize int
	streamName    string
	codecInfoPath string
	statsAddr     string
	logFile       string
	configPath    string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{
		maxPacketSize: 1200,
		streamName:    "stream",
		statsAddr:     ":9631",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Repacketize a long-running RTP stream read from a unix socket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.socketPath, "socket", "/run/hksvrepack.sock", "unix socket to accept RTP capture connections on")
	flags.IntVar(&opts.maxPacketSize, "max-packet-size", opts.maxPacketSize, "max emitted RTP payload size")
	flags.StringVar(&opts.streamName, "stream-name", opts.streamName, "stream name used in log lines and stats")
	flags.StringVar(&opts.codecInfoPath, "codec-info", "", "path to a hot-reloadable codec-info file")
	flags.StringVar(&opts.statsAddr, "stats-addr", opts.statsAddr, "address to serve the live diagnostics websocket on")
	flags.StringVar(&opts.logFile, "log-file", "", "rotating log file path (stderr if empty)")
	flags.StringVar(&opts.configPath, "config", "", "path to a stream config file; overrides --stream-name, --max-packet-size and --codec-info when given")

	return cmd
}

// applyStreamConfig loads a StreamConfig from opts.configPath, if set, and
// overrides the matching serveOptions fields with it.
func applyStreamConfig(opts *serveOptions) error {
	if opts.configPath == "" {
		return nil
	}

	cfg, err := config.LoadStreamConfig(opts.configPath)
	if err != nil {
		return errors.Wrap(err, "load stream config")
	}

	opts.streamName = cfg.Name
	opts.maxPacketSize = cfg.MaxPacketSize
	opts.codecInfoPath = cfg.CodecInfoPath
	return nil
}

func serve(ctx context.Context, opts *serveOptions) error {
	if err := applyStreamConfig(opts); err != nil {
		return err
	}

	logWriter := newLogWriter(opts.logFile)

	hub := diag.NewHub()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/stats/ws", hub)
		_ = http.ListenAndServe(opts.statsAddr, mux) //nolint:errcheck
	}()

	var latestCodecInfo atomic.Value // rtph264.CodecInfo
	latestCodecInfo.Store(rtph264.CodecInfo{})

	if opts.codecInfoPath != "" {
		if info, err := config.LoadCodecInfoFile(opts.codecInfoPath); err == nil {
			latestCodecInfo.Store(info)
		}

		watcher, err := config.NewCodecInfoWatcher(opts.codecInfoPath, func(error) {})
		if err != nil {
			return errors.Wrap(err, "watch codec info file")
		}
		watcher.Start(ctx)
		defer watcher.Stop()

		go func() {
			for info := range watcher.Reloads {
				latestCodecInfo.Store(info)
			}
		}()
	}

	_ = os.Remove(opts.socketPath)
	listener, err := net.Listen("unix", opts.socketPath)
	if err != nil {
		return errors.Wrap(err, "listen on unix socket")
	}
	defer listener.Close() //nolint:errcheck

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		return errors.Wrap(err, "notify systemd readiness")
	}

	connID := 0
	for {
		conn, err := listener.Accept()
		if err != nil {
			return errors.Wrap(err, "accept connection")
		}
		connID++

		codecInfo, _ := latestCodecInfo.Load().(rtph264.CodecInfo)
		r, err := rtph264.New(opts.maxPacketSize, codecInfo)
		if err != nil {
			conn.Close() //nolint:errcheck
			continue
		}

		sink := diag.NewSink(fmt.Sprintf("%s-%d", opts.streamName, connID), logWriter)
		wireDiagnostics(r, sink)

		go func(conn net.Conn) {
			defer conn.Close() //nolint:errcheck
			_ = pump(conn, conn, r, sink) //nolint:errcheck
			hub.Broadcast(sink.Snapshot())
		}(conn)
	}
}

func newLogWriter(path string) io.Writer {
	if path == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
	}
}
