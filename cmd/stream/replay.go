package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/ValentinKolb/povms/rpc/transport/base"
	"github.com/ValentinKolb/povms/rpc/transport/local"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	replayCmd = &cobra.Command{
		Use:   "replay [file]",
		Short: "Feed the envelopes of a file (or stdin) into a context and dispatch them",
		Long: `Opens a context, pumps every unit of the input into its queue and dispatches
the messages to a receiver printing them. Only messages of the classes given
with --classes are accepted, others are counted as failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()

			registry := local.NewRegistry()
			c, err := povms.OpenContextIn(registry, util.GetContextConfig("replay"))
			if err != nil {
				return err
			}
			defer c.CloseContext()

			out := cmd.OutOrStdout()
			for _, class := range strings.Split(viper.GetString("classes"), ",") {
				if class = strings.TrimSpace(class); class == "" {
					continue
				}
				if err := c.InstallReceiver(store.MakeType(class), povms.Wildcard, printReceiver, out); err != nil {
					return err
				}
			}

			q, err := registry.Lookup(c.Address())
			if err != nil {
				return err
			}
			stats, err := replayUnits(cmd.Context(), in, c, q)
			fmt.Fprintf(out, "# %d units forwarded, %d messages handled, %d failed\n", stats.forwarded, stats.handled, stats.failed)
			return err
		},
	}
)

func init() {
	util.SetupContextFlags(replayCmd)

	key := "classes"
	replayCmd.Flags().String(key, "TEST,SYST", util.WrapString("Comma separated message classes the replay context accepts"))
}

// printReceiver writes every message it receives to the io.Writer passed as user data
func printReceiver(msg, _ *store.Object, mode common.Mode, userData any) error {
	w := userData.(io.Writer)
	class, _ := common.MessageClass(msg)
	id, _ := common.MessageIdentifier(msg)
	src, _ := common.SourceAddress(msg)
	fmt.Fprintf(w, "# %s/%s from %s, mode %s\n", class, id, src, mode)
	return store.Dump(w, msg)
}

type replayStats struct {
	forwarded, handled, failed int
}

// replayUnits forwards the units of r into q on a second goroutine while
// dispatching them from c. It returns once r is exhausted and q is empty.
func replayUnits(stdctx context.Context, r io.Reader, c *povms.Context, q transport.IQueue) (replayStats, error) {
	if stdctx == nil {
		stdctx = context.Background()
	}
	stdctx, cancel := context.WithCancel(stdctx)
	defer cancel()

	type forwardResult struct {
		n   int
		err error
	}
	done := make(chan forwardResult, 1)
	go func() {
		n, err := base.Forward(stdctx, r, q)
		done <- forwardResult{n, err}
	}()

	var stats replayStats
	var forwardErr error
	forwarding := true
	for forwarding || q.Len() > 0 {
		if forwarding {
			select {
			case res := <-done:
				forwarding = false
				stats.forwarded, forwardErr = res.n, res.err
			default:
			}
		}

		err := c.ProcessMessages(forwarding, false)
		switch {
		case errors.Is(err, errcode.False):
			stats.handled++
		case errors.Is(err, errcode.InvalidContext):
			return stats, err
		case err != nil:
			stats.failed++
			util.Logger.Warningf("replay: %v", err)
		}
	}
	return stats, forwardErr
}
