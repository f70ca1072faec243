package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/povms/cmd/bench"
	"github.com/ValentinKolb/povms/cmd/stream"
	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.5"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "povms",
		Short: "message passing and serialization core",
		Long: fmt.Sprintf(`povms (v%s)

Tagged object store, binary wire codec and context based message passing
between in-process queues. The commands inspect wire data and benchmark
message round trips.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return common.InitLoggers(util.GetContextConfig("cli"))
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of povms",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "povms v%s (wire protocol 0x%04x)\n", Version, serializer.ProtocolVersion)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(stream.StreamCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warning", util.WrapString("Log level (debug, info, warning, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
