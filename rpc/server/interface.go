package server

import (
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
)

// IMessageAdapter services every message of one class on a worker
type IMessageAdapter interface {
	// Class returns the message class the adapter is registered for
	Class() store.Type

	// Handle services a message. result is nil unless the sender waits for a
	// reply. The returned error is stored in the MERR key of the result, so an
	// unsupported identifier should be reported as errcode.CannotHandleData.
	Handle(msg, result *store.Object, mode common.Mode) error
}
