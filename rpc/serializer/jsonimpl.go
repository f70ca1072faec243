package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer(indent bool) IObjectSerializer {
	return &jsonSerializerImpl{indent: indent}
}

// jsonSerializerImpl implements the IObjectSerializer interface using json encoding
type jsonSerializerImpl struct {
	indent bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IObjectSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(obj *store.Object) ([]byte, error) {
	if obj == nil {
		return nil, errcode.Param
	}
	if obj.Locked() {
		return nil, errcode.NotNow
	}
	p := toPortable(store.Nested(obj))
	if j.indent {
		return json.MarshalIndent(p, "", "  ")
	}
	return json.Marshal(p)
}

func (j jsonSerializerImpl) Deserialize(b []byte) (*store.Object, error) {
	var p portableAttr
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%v: %w", err, errcode.CannotHandleData)
	}
	return objectFromPortable(p)
}
