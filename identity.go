package propwire

import "reflect"

// identity names one container allocation. Two distinct containers with equal
// contents always have different identities. Empty slices have none. Slices carry their length as
// well as their data pointer, since s[:1] and s share storage but are not the
// same container.
type identity struct {
	kind reflect.Kind
	ptr  uintptr
	n    int
}

func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{kind: v.Kind(), ptr: v.Pointer()}, true
	case reflect.Slice:
		// Empty slices may all share one zero-size base address.
		if v.IsNil() || v.Len() == 0 {
			return identity{}, false
		}
		return identity{kind: reflect.Slice, ptr: v.Pointer(), n: v.Len()}, true
	}
	return identity{}, false
}

// ancestors holds the containers on the active encode path. It lives for one
// top-level encode call and is never shared.
type ancestors map[identity]struct{}

// enter records v on the path. ok is false when v is already an ancestor.
// A value without identity (arrays, fresh pair slices) is always accepted and
// leave is a no-op for it.
func (a ancestors) enter(v reflect.Value) (leave func(), ok bool) {
	id, has := identityOf(v)
	if !has {
		return func() {}, true
	}
	if _, seen := a[id]; seen {
		return nil, false
	}
	a[id] = struct{}{}
	return func() { delete(a, id) }, true
}
