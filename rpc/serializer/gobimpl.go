package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IObjectSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IObjectSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IObjectSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(obj *store.Object) ([]byte, error) {
	if obj == nil {
		return nil, errcode.Param
	}
	if obj.Locked() {
		return nil, errcode.NotNow
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(toPortable(store.Nested(obj))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte) (*store.Object, error) {
	var p portableAttr
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
	}
	return objectFromPortable(p)
}
