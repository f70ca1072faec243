// Package store provides the dynamically typed value tree every povms message
// is built from.
//
// The package focuses on:
//   - Tagged attributes holding scalars, strings, vectors, addresses, lists or objects
//   - Objects as ordered key/attribute collections with deep copy semantics
//   - Reentrancy protection for objects that are accessed from within callbacks
//
// Key Components:
//
//   - Type: A four character code (e.g. 'INT4', 'MCLA'). Type codes name attribute
//     kinds, object classes, message identifiers and keys.
//
//   - Attribute: A single tagged value. Constructors such as Int, CString, UCS2,
//     Nested and ListOf create attributes, typed getters such as Attribute.Int
//     return errcode.DataType on a kind mismatch.
//
//   - Object: Keyed children with Set/Get/Remove/Exist/Count plus typed
//     convenience accessors (SetInt, GetString, TryGetBool, ...). Get always hands
//     out a deep copy, Set takes ownership of the attribute it is given.
//
//   - List: Positionally indexed (0-based) attributes with bulk append.
//
// Ownership:
//
//	A value stored in an Object or List is owned by it. Replacing or removing a
//	child releases the previous value, Delete releases a whole tree and reports
//	how many attributes were released. Releasing an already empty object is a
//	no-op, so there is no way to free a value twice.
//
// Usage Example:
//
//	msg := store.New(store.MakeType("TEST"))
//	_ = msg.SetInt(store.MakeType("VAL1"), 42)
//
//	v, err := msg.GetInt(store.MakeType("VAL1")) // 42, nil
//	_, err = msg.GetString(store.MakeType("VAL1")) // errcode.DataType
//
// Thread Safety:
//
//	Objects and lists are not safe for concurrent use. Every Object accessor
//	marks the object as locked while it runs, a nested call on the same object
//	(for example from a Walk callback) fails with errcode.NotNow.
package store
