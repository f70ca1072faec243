package client

import (
	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
)

// --------------------------------------------------------------------------
// System messages (answered by server.NewPingAdapter)
// --------------------------------------------------------------------------

// Ping sends value to dst and returns the value the worker answered with
// (value+1 for the built-in adapter)
func (c *Client) Ping(dst addr.Address, value int32) (int32, error) {
	msg := common.NewMessage(common.ClassSystem, common.IDPing)
	if err := msg.SetInt(common.KeyValue, value); err != nil {
		return 0, err
	}
	result, err := c.Call(dst, msg)
	if err != nil {
		return 0, err
	}
	return result.GetInt(common.KeyValue)
}

// Echo sends every non reserved key of payload to dst and returns the echoed
// keys as a new object
func (c *Client) Echo(dst addr.Address, payload *store.Object) (*store.Object, error) {
	msg := common.NewMessage(common.ClassSystem, common.IDEcho)
	if payload != nil {
		for key, attr := range payload.All() {
			if common.IsReservedKey(key) {
				continue
			}
			if err := msg.Add(key, attr.Clone()); err != nil {
				return nil, err
			}
		}
	}

	result, err := c.Call(dst, msg)
	if err != nil {
		return nil, err
	}

	echoed := store.Empty(store.TypeObject)
	for key, attr := range result.All() {
		if common.IsReservedKey(key) {
			continue
		}
		if err := echoed.Add(key, attr.Clone()); err != nil {
			return nil, err
		}
	}
	return echoed, nil
}
