package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"teleivo/msx/symbol-file"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "symbol file generation failed due to:\n%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "makesym DIR NAME",
		Short: "Build an openMSX debugger symbol file from a linker map file",
		Long: `makesym reads DIR/NAME.map and writes DIR/NAME_.sym.

Every map entry whose first word is a hex address becomes a line
"SYMBOL: equ ADDRESSH". Lengths (l__), sizes (s__) and section
markers (.__) are left out.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := run(args[0], args[1])
			if err != nil {
				return err
			}
			if verbose {
				printStats(cmd.ErrOrStderr(), stats)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a summary of the converted map file")

	return cmd
}

func run(dir, name string) (mapsym.Stats, error) {
	in, out := mapsym.Paths(dir, name)
	return mapsym.ConvertFile(in, out)
}

func printStats(w io.Writer, stats mapsym.Stats) {
	fmt.Fprintf(w, "read %d lines, wrote %d symbols\n", stats.Lines, stats.Written)
	fmt.Fprintf(w, "skipped %d short, %d reserved, %d without hex address\n", stats.Short, stats.Reserved, stats.NotHex)
}
