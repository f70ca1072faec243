package stream

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/povms/cmd/util"
	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/transport/base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	sampleCmd = &cobra.Command{
		Use:   "sample [file]",
		Short: "Write TEST/PING sample messages to a file (or stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := openOutput(args)
			if err != nil {
				return err
			}
			defer out.Close()

			return writeSamples(out, viper.GetInt("count"), int32(viper.GetInt("value")), viper.GetBool("objects"))
		},
	}
)

func init() {
	key := "count"
	sampleCmd.Flags().Int(key, 1, util.WrapString("Number of messages to write"))
	key = "value"
	sampleCmd.Flags().Int(key, 42, util.WrapString("VAL1 of the first message, every further message counts up by one"))
}

var (
	classTest = store.MakeType("TEST")
	idPing    = store.MakeType("PING")
)

// sampleMessage builds the i-th sample message
func sampleMessage(value int32) *store.Object {
	msg := common.NewMessage(classTest, idPing)
	_ = common.SetDestinationAddress(msg, addr.System(1))
	_ = msg.SetInt(common.KeyValue, value)
	_ = msg.SetString(store.MakeType("NOTE"), fmt.Sprintf("sample %d", value))
	return msg
}

// writeSamples writes count sample messages as envelopes (or bare objects)
func writeSamples(w io.Writer, count int, value int32, objects bool) error {
	if count < 0 {
		return fmt.Errorf("invalid count %d", count)
	}
	stream := serializer.NewStream(nil)
	for i := 0; i < count; i++ {
		msg := sampleMessage(value + int32(i))
		if objects {
			if _, err := stream.WriteObjectTo(w, msg); err != nil {
				return err
			}
			continue
		}
		unit, err := stream.WriteEnvelope(int32(common.ModeNoReply), msg, nil)
		if err != nil {
			return err
		}
		if err := base.WriteUnits(w, unit); err != nil {
			return err
		}
	}
	return nil
}
