package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/transport/base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dumpCmd = &cobra.Command{
		Use:   "dump [file]",
		Short: "Print the objects contained in a file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			var n int
			if viper.GetBool("objects") {
				n, err = dumpObjects(in, out, viper.GetString("format"))
			} else {
				n, err = dumpUnits(in, out, viper.GetString("format"))
			}
			util.Logger.Debugf("dumped %d entries", n)
			return err
		},
	}
)

func init() {
	key := "format"
	dumpCmd.Flags().String(key, "text", util.WrapString("Output format (text, json)"))
}

// printer returns a function writing one object in the given format
func printer(w io.Writer, format string) (func(*store.Object) error, error) {
	if format == "text" {
		return func(o *store.Object) error { return store.Dump(w, o) }, nil
	}
	if format != "json" {
		return nil, fmt.Errorf("invalid format %s (expected text or json)", format)
	}
	s, err := util.GetSerializer(format)
	if err != nil {
		return nil, err
	}
	return func(o *store.Object) error {
		data, err := s.Serialize(o)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}, nil
}

// dumpUnits prints every envelope read from r and returns the number of units
func dumpUnits(r io.Reader, w io.Writer, format string) (int, error) {
	emit, err := printer(w, format)
	if err != nil {
		return 0, err
	}
	stream := serializer.NewStream(nil)

	for n := 0; ; n++ {
		unit, err := base.ReadUnit(r)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("unit %d: %w", n, err)
		}
		env, err := stream.ReadEnvelope(unit)
		if err != nil {
			return n, fmt.Errorf("unit %d: %w", n, err)
		}

		fmt.Fprintf(w, "# unit %d: %d bytes, mode %s\n", n, len(unit), common.Mode(env.Mode))
		fmt.Fprintln(w, "# message")
		if err := emit(env.Msg); err != nil {
			return n, err
		}
		if env.Result != nil {
			fmt.Fprintln(w, "# result")
			if err := emit(env.Result); err != nil {
				return n, err
			}
		}
	}
}

// dumpObjects prints every bare object stream read from r
func dumpObjects(r io.Reader, w io.Writer, format string) (int, error) {
	emit, err := printer(w, format)
	if err != nil {
		return 0, err
	}
	stream := serializer.NewStream(nil)

	for n := 0; ; n++ {
		obj, size, err := stream.ReadObjectFrom(r)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("object %d: %w", n, err)
		}
		fmt.Fprintf(w, "# object %d: %d bytes\n", n, size)
		if err := emit(obj); err != nil {
			return n, err
		}
	}
}
