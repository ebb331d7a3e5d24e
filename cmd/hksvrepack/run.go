package main

import (
	"encoding/base64"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/TA2k/hksvrepack/internal/diag"
	"github.com/TA2k/hksvrepack/pkg/rtph264"
	"github.com/TA2k/hksvrepack/pkg/sdpcodec"
)

type runOptions struct {
	inPath        string
	outPath       string
	maxPacketSize int
	spropSPS      string
	spropPPS      string
	sdpPath       string
	payloadType   uint8
	streamName    string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{
		maxPacketSize: 1200,
		payloadType:   96,
		streamName:    "stream",
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Repacketize a captured length-prefixed RTP stream once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.inPath, "in", "-", `input file, or "-" for stdin`)
	flags.StringVar(&opts.outPath, "out", "-", `output file, or "-" for stdout`)
	flags.IntVar(&opts.maxPacketSize, "max-packet-size", opts.maxPacketSize, "max emitted RTP payload size")
	flags.StringVar(&opts.spropSPS, "sps", "", "base64-encoded SPS to splice ahead of each IDR while the stream has sent no SPS")
	flags.StringVar(&opts.spropPPS, "pps", "", "base64-encoded PPS to splice ahead of each IDR while the stream has sent no SPS")
	flags.StringVar(&opts.sdpPath, "sdp", "", "path to a previously-negotiated SDP file to source SPS/PPS from, instead of --sps/--pps")
	flags.Uint8Var(&opts.payloadType, "payload-type", opts.payloadType, "RTP payload type of the H.264 media described in --sdp")
	flags.StringVar(&opts.streamName, "stream-name", opts.streamName, "stream name used in log lines")

	return cmd
}

func runOnce(opts *runOptions) error {
	in, err := openInput(opts.inPath)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer in.Close() //nolint:errcheck

	out, err := openOutput(opts.outPath)
	if err != nil {
		return errors.Wrap(err, "open output")
	}
	defer out.Close() //nolint:errcheck

	codecInfo, err := resolveCodecInfo(opts)
	if err != nil {
		return errors.Wrap(err, "resolve codec info")
	}

	r, err := rtph264.New(opts.maxPacketSize, codecInfo)
	if err != nil {
		return errors.Wrap(err, "construct repacketizer")
	}

	sink := diag.NewSink(opts.streamName, os.Stderr)
	wireDiagnostics(r, sink)

	return pump(in, out, r, sink)
}

func pump(in io.Reader, out io.Writer, r *rtph264.Repacketizer, sink *diag.Sink) error {
	for {
		pkt, err := readLengthPrefixed(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read packet")
		}
		sink.RecordIn()

		emitted := r.Repacketize(pkt)
		sink.RecordOut(len(emitted))

		for _, buf := range emitted {
			if err := writeLengthPrefixed(out, buf); err != nil {
				return errors.Wrap(err, "write packet")
			}
		}
	}
}

// resolveCodecInfo prefers an SDP-sourced CodecInfo when --sdp is given,
// falling back to the base64-encoded --sps/--pps flags.
func resolveCodecInfo(opts *runOptions) (rtph264.CodecInfo, error) {
	if opts.sdpPath != "" {
		sdp, err := os.ReadFile(opts.sdpPath)
		if err != nil {
			return rtph264.CodecInfo{}, errors.Wrap(err, "read --sdp")
		}
		codecInfo, err := sdpcodec.ParseCodecInfo(sdp, opts.payloadType)
		if err != nil {
			return rtph264.CodecInfo{}, errors.Wrap(err, "parse --sdp")
		}
		return codecInfo, nil
	}

	return decodeCodecInfoFlags(opts.spropSPS, opts.spropPPS)
}

func decodeCodecInfoFlags(spropSPS, spropPPS string) (rtph264.CodecInfo, error) {
	if spropSPS == "" && spropPPS == "" {
		return rtph264.CodecInfo{}, nil
	}

	sps, err := base64.StdEncoding.DecodeString(spropSPS)
	if err != nil {
		return rtph264.CodecInfo{}, errors.Wrap(err, "invalid --sps")
	}
	pps, err := base64.StdEncoding.DecodeString(spropPPS)
	if err != nil {
		return rtph264.CodecInfo{}, errors.Wrap(err, "invalid --pps")
	}

	return rtph264.CodecInfo{SPS: sps, PPS: pps}, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
