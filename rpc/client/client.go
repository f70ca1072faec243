package client

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// New creates a client sending through ctx. The client does not own ctx.
func New(ctx *povms.Context) *Client {
	return &Client{ctx: ctx}
}

// Client wraps the send modes of a context into calls returning Go errors
type Client struct {
	ctx     *povms.Context
	timeout time.Duration
}

// WithTimeout returns a copy of c that stamps d (rounded up to whole seconds)
// into every message it calls with, overriding the context default
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	cp.timeout = d
	return &cp
}

// Call sends msg to dst and waits for the result. A non zero MERR key in the
// result is returned as error together with the result.
func (c *Client) Call(dst addr.Address, msg *store.Object) (*store.Object, error) {
	if msg == nil {
		return nil, errcode.Param
	}
	class, err := common.MessageClass(msg)
	if err != nil {
		return nil, fmt.Errorf("message without class: %w", err)
	}
	id, err := common.MessageIdentifier(msg)
	if err != nil {
		return nil, fmt.Errorf("message without identifier: %w", err)
	}

	if err := common.SetDestinationAddress(msg, dst); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		if err := common.SetTimeout(msg, c.timeout); err != nil {
			return nil, err
		}
	}

	result := store.NewResult(class)
	start := time.Now()
	if err := c.ctx.Send(msg, result, common.ModeWaitReply); err != nil {
		return nil, fmt.Errorf("call %s/%s to %s: %w", class, id, dst, err)
	}
	Logger.Debugf("call %s/%s to %s took %v", class, id, dst, time.Since(start))

	if err := common.ErrorCode(result); err != nil {
		return result, fmt.Errorf("call %s/%s to %s failed: %w", class, id, dst, err)
	}
	return result, nil
}

// Post sends msg to dst without waiting for anything
func (c *Client) Post(dst addr.Address, msg *store.Object) error {
	if msg == nil {
		return errcode.Param
	}
	if err := common.SetDestinationAddress(msg, dst); err != nil {
		return err
	}
	return c.ctx.Send(msg, nil, common.ModeNoReply)
}
