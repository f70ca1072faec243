package stream

import (
	"io"
	"os"

	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// StreamCommands represents the stream command group
	StreamCommands = &cobra.Command{
		Use:   "stream",
		Short: "Inspect and produce povms wire data",
		Long: `Tools for the povms wire format. Input and output are either a sequence of
envelopes (as a transport moves them) or, with --objects, a sequence of bare
object streams.`,
	}
)

func init() {
	key := "objects"
	StreamCommands.PersistentFlags().Bool(key, false, util.WrapString("Read or write bare object streams instead of envelopes"))

	// Add subcommands
	StreamCommands.AddCommand(dumpCmd)
	StreamCommands.AddCommand(sampleCmd)
	StreamCommands.AddCommand(replayCmd)
}

// openInput returns stdin for no argument or "-", the named file otherwise
func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

// openOutput returns stdout for no argument or "-", the created file otherwise
func openOutput(args []string) (io.WriteCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(args[0])
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
