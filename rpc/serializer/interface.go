package serializer

import "github.com/ValentinKolb/povms/lib/store"

// IObjectSerializer is the interface for all object serializers
type IObjectSerializer interface {
	// Serialize converts a whole object tree into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(obj *store.Object) ([]byte, error)
	// Deserialize rebuilds an object tree from a byte array produced by Serialize
	// It returns the new object and an error if any
	Deserialize(b []byte) (*store.Object, error)
}
