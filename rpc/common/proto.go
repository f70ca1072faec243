package common

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// --------------------------------------------------------------------------
// Send modes
// --------------------------------------------------------------------------

// Mode is the reply expectation of a send
type Mode int32

const (
	ModeInvalid     Mode = 0
	ModeNoReply     Mode = 1
	ModeWaitReply   Mode = 2
	ModeWantReceipt Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeNoReply:
		return "NoReply"
	case ModeWaitReply:
		return "WaitReply"
	case ModeWantReceipt:
		return "WantReceipt"
	default:
		return fmt.Sprintf("Invalid(%d)", int32(m))
	}
}

// Valid reports whether m is one of the three send modes
func (m Mode) Valid() bool {
	return m >= ModeNoReply && m <= ModeWantReceipt
}

// --------------------------------------------------------------------------
// Reserved message keys
// --------------------------------------------------------------------------

const (
	KeyMessageClass       = store.Type('M'<<24 | 'C'<<16 | 'L'<<8 | 'A')
	KeyMessageIdentifier  = store.Type('M'<<24 | 'I'<<16 | 'D'<<8 | 'E')
	KeySourceAddress      = store.Type('M'<<24 | 'S'<<16 | 'R'<<8 | 'C')
	KeyDestinationAddress = store.Type('M'<<24 | 'D'<<16 | 'S'<<8 | 'T')
	KeyTimeout            = store.Type('T'<<24 | 'O'<<16 | 'U'<<8 | 'T')
	KeyError              = store.Type('M'<<24 | 'E'<<16 | 'R'<<8 | 'R')
	KeySequence           = store.Type('M'<<24 | 'S'<<16 | 'E'<<8 | 'Q')
	KeyResultSequence     = store.Type('R'<<24 | 'S'<<16 | 'E'<<8 | 'Q')
)

// System messages every worker answers
const (
	ClassSystem = store.Type('S'<<24 | 'Y'<<16 | 'S'<<8 | 'T')
	IDPing      = store.Type('P'<<24 | 'I'<<16 | 'N'<<8 | 'G')
	IDEcho      = store.Type('E'<<24 | 'C'<<16 | 'H'<<8 | 'O')
)

// KeyValue is the payload key of ping messages
const KeyValue = store.Type('V'<<24 | 'A'<<16 | 'L'<<8 | '1')

// DefaultTimeout applies to WaitReply sends whose message carries no TOUT key
const DefaultTimeout = 10 * time.Second

// --------------------------------------------------------------------------
// Message helpers
// --------------------------------------------------------------------------

// NewMessage creates a message object of the given class and identifier with
// invalid source and destination addresses
func NewMessage(class, id store.Type) *store.Object {
	msg := store.New(class)
	_ = SetupMessage(msg, class, id)
	return msg
}

// SetupMessage sets class and identifier of msg and adds invalid source and
// destination addresses if they are missing
func SetupMessage(msg *store.Object, class, id store.Type) error {
	if err := msg.SetType(KeyMessageClass, class); err != nil {
		return err
	}
	if err := msg.SetType(KeyMessageIdentifier, id); err != nil {
		return err
	}
	for _, key := range []store.Type{KeySourceAddress, KeyDestinationAddress} {
		ok, err := msg.Exist(key)
		if err != nil {
			return err
		}
		if !ok {
			if err := msg.SetAddress(key, addr.Invalid); err != nil {
				return err
			}
		}
	}
	return nil
}

// MessageClass returns the MCLA key of msg
func MessageClass(msg *store.Object) (store.Type, error) {
	return msg.GetType(KeyMessageClass)
}

// MessageIdentifier returns the MIDE key of msg
func MessageIdentifier(msg *store.Object) (store.Type, error) {
	return msg.GetType(KeyMessageIdentifier)
}

// SourceAddress returns the MSRC key of msg
func SourceAddress(msg *store.Object) (addr.Address, error) {
	return msg.GetAddress(KeySourceAddress)
}

func SetSourceAddress(msg *store.Object, a addr.Address) error {
	return msg.SetAddress(KeySourceAddress, a)
}

// DestinationAddress returns the MDST key of msg
func DestinationAddress(msg *store.Object) (addr.Address, error) {
	return msg.GetAddress(KeyDestinationAddress)
}

func SetDestinationAddress(msg *store.Object, a addr.Address) error {
	return msg.SetAddress(KeyDestinationAddress, a)
}

// Timeout returns the TOUT key of msg (whole seconds), or DefaultTimeout
func Timeout(msg *store.Object) time.Duration {
	return TimeoutOr(msg, DefaultTimeout)
}

// TimeoutOr returns the TOUT key of msg, or def if the key is missing or not positive
func TimeoutOr(msg *store.Object, def time.Duration) time.Duration {
	if sec, err := msg.GetInt(KeyTimeout); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return def
}

// SetTimeout stores d rounded up to whole seconds
func SetTimeout(msg *store.Object, d time.Duration) error {
	sec := int32((d + time.Second - 1) / time.Second)
	return msg.SetInt(KeyTimeout, sec)
}

// ErrorCode returns the MERR key of msg as error, nil for NoErr or a missing key
func ErrorCode(msg *store.Object) error {
	return errcode.FromInt(msg.TryGetInt(KeyError, 0))
}

// SetErrorCode stores the code carried by err (NoErr for nil) in msg
func SetErrorCode(msg *store.Object, err error) error {
	return msg.SetInt(KeyError, int32(errcode.Of(err)))
}

// IsReservedKey reports whether key is one of the keys the messaging layer
// maintains itself
func IsReservedKey(key store.Type) bool {
	switch key {
	case store.KeyObjectClass, KeyMessageClass, KeyMessageIdentifier, KeySourceAddress,
		KeyDestinationAddress, KeyTimeout, KeyError, KeySequence, KeyResultSequence:
		return true
	}
	return false
}

// Sequence returns the MSEQ key of msg, 0 if missing
func Sequence(msg *store.Object) int64 {
	return msg.TryGetLong(KeySequence, 0)
}

// ResultSequence returns the RSEQ key of msg, 0 if missing
func ResultSequence(msg *store.Object) int64 {
	return msg.TryGetLong(KeyResultSequence, 0)
}
