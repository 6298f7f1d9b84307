// Package main is the vbdiar command line interface.
//
// Usage:
//
//	vbdiar resegment --bundle model.msgpack --features-dir feats/ --labels init.rttm --out refined.rttm
//	vbdiar serve --config vbdiar.yaml
//	vbdiar version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vbdiar",
	Short:         "VB-HMM speaker resegmentation",
	Long:          "vbdiar refines per-frame speaker assignments of diarized recordings\nwith a variational Bayes HMM resegmentation pass.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
