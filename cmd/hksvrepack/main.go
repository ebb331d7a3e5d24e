// Command hksvrepack repacketizes a captured or live RTP/H.264 stream for
// a HomeKit Secure Video receiver.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hksvrepack",
		Short: "Repacketize RTP/H.264 for HomeKit Secure Video",
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())

	return root
}
