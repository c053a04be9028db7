package backend

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotTransferable marks payloads that cannot be handed to an isolated
// worker. Returned (wrapped with the offending type) from Spawn.
var ErrNotTransferable = errors.New("payload is not transferable to an isolated worker")

// TransferCopy returns a deep copy of v with no shared mutable state.
// Transferable values are booleans, numbers, strings, and pointers, slices,
// arrays, maps, and structs composed of them. Channels, functions, unsafe
// pointers, and structs with unexported fields are rejected: they either
// embed references back into the caller's world or cannot be copied at all.
func TransferCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	out, err := copyValue(reflect.ValueOf(v), make(map[uintptr]reflect.Value))
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// copyValue recursively copies rv. seen maps source pointers to their
// copies so shared and cyclic pointer structure is preserved.
func copyValue(rv reflect.Value, seen map[uintptr]reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return rv, nil

	case reflect.Pointer:
		if rv.IsNil() {
			return rv, nil
		}
		if c, ok := seen[rv.Pointer()]; ok {
			return c, nil
		}
		c := reflect.New(rv.Type().Elem())
		seen[rv.Pointer()] = c
		elem, err := copyValue(rv.Elem(), seen)
		if err != nil {
			return reflect.Value{}, err
		}
		c.Elem().Set(elem)
		return c, nil

	case reflect.Slice:
		if rv.IsNil() {
			return rv, nil
		}
		c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := copyValue(rv.Index(i), seen)
			if err != nil {
				return reflect.Value{}, err
			}
			c.Index(i).Set(ev)
		}
		return c, nil

	case reflect.Array:
		c := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			ev, err := copyValue(rv.Index(i), seen)
			if err != nil {
				return reflect.Value{}, err
			}
			c.Index(i).Set(ev)
		}
		return c, nil

	case reflect.Map:
		if rv.IsNil() {
			return rv, nil
		}
		c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kv, err := copyValue(iter.Key(), seen)
			if err != nil {
				return reflect.Value{}, err
			}
			vv, err := copyValue(iter.Value(), seen)
			if err != nil {
				return reflect.Value{}, err
			}
			c.SetMapIndex(kv, vv)
		}
		return c, nil

	case reflect.Struct:
		c := reflect.New(rv.Type()).Elem()
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				return reflect.Value{}, fmt.Errorf("%w: struct %s has unexported field %s",
					ErrNotTransferable, t, t.Field(i).Name)
			}
			fv, err := copyValue(rv.Field(i), seen)
			if err != nil {
				return reflect.Value{}, err
			}
			c.Field(i).Set(fv)
		}
		return c, nil

	case reflect.Interface:
		if rv.IsNil() {
			return rv, nil
		}
		inner, err := copyValue(rv.Elem(), seen)
		if err != nil {
			return reflect.Value{}, err
		}
		c := reflect.New(rv.Type()).Elem()
		c.Set(inner)
		return c, nil

	default:
		// Chan, Func, UnsafePointer, and anything reflect cannot name.
		return reflect.Value{}, fmt.Errorf("%w: contains %s", ErrNotTransferable, rv.Kind())
	}
}
