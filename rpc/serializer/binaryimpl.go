package serializer

import (
	"fmt"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// NewBinarySerializer creates a new serializer using the povms stream format
// with the host order tables
func NewBinarySerializer() IObjectSerializer {
	return &binarySerializerImpl{stream: NewStream(nil)}
}

// binarySerializerImpl implements IObjectSerializer on top of Stream
type binarySerializerImpl struct {
	stream *Stream
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IObjectSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(obj *store.Object) ([]byte, error) {
	buf := make([]byte, b.stream.ObjectSize(obj))
	n, err := b.stream.WriteObject(obj, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (b binarySerializerImpl) Deserialize(data []byte) (*store.Object, error) {
	obj, n, err := b.stream.ReadObject(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%d trailing bytes: %w", len(data)-n, errcode.InvalidDataSize)
	}
	return obj, nil
}
