package main

import (
	"github.com/TA2k/hksvrepack/internal/diag"
	"github.com/TA2k/hksvrepack/pkg/h264"
	"github.com/TA2k/hksvrepack/pkg/rtph264"
)

// wireDiagnostics hooks a Repacketizer's non-fatal callbacks to sink: every
// warning is logged and counted, and every observed SPS is parsed for its
// negotiated picture dimensions so the operator sees a resolution instead
// of a raw hex dump. A SPS that fails to parse (scaling matrices, an
// unsupported pic_order_cnt_type) is silently skipped, since dimension
// logging is a diagnostic nicety, not load-bearing for repacketization.
func wireDiagnostics(r *rtph264.Repacketizer, sink *diag.Sink) {
	r.OnWarning(sink.OnWarning)
	r.OnSPS(func(sps []byte) {
		parsed, err := h264.ParseSPS(sps)
		if err != nil {
			return
		}
		sink.LogResolution(parsed.Width(), parsed.Height())
	})
}
