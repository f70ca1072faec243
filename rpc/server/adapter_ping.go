package server

import (
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
)

// NewPingAdapter creates the adapter answering the system class:
//   - PING copies VAL1+1 into the result (VAL1 is optional)
//   - ECHO copies every non reserved key of the message into the result
func NewPingAdapter() IMessageAdapter {
	return &pingAdapterImpl{}
}

type pingAdapterImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IMessageAdapter)
// --------------------------------------------------------------------------

func (adapter *pingAdapterImpl) Class() store.Type {
	return common.ClassSystem
}

func (adapter *pingAdapterImpl) Handle(msg, result *store.Object, mode common.Mode) error {
	id, err := common.MessageIdentifier(msg)
	if err != nil {
		return err
	}

	switch id {
	case common.IDPing:
		if result == nil {
			return nil
		}
		v, err := msg.GetInt(common.KeyValue)
		if err != nil {
			// a ping without value is still answered
			return nil
		}
		return result.SetInt(common.KeyValue, v+1)
	case common.IDEcho:
		if result == nil {
			return nil
		}
		for key, attr := range msg.All() {
			if common.IsReservedKey(key) {
				continue
			}
			if err := result.Add(key, attr.Clone()); err != nil {
				return err
			}
		}
		return nil
	default:
		return errcode.Wrap(errcode.CannotHandleData, "system adapter: unsupported message %s", id)
	}
}
