package value

import (
	"fmt"
	"reflect"
	"strings"
)

// Marshaler lets a type describe itself as a Value directly, bypassing the
// reflective traversal.
type Marshaler interface {
	MarshalValue() (Value, error)
}

// Builder converts an arbitrary typed record into a Value tree.
//
// The traversal recognizes the domain wrapper types (Identifier, Bytes,
// FixedBytes, Version) by their concrete type before generic reflection
// runs, so a wrapper can never be mistaken for the plain scalar it wraps.
//
// Struct fields are named by the `dynval` tag:
//
//	Field T `dynval:"name"`           // rename
//	Field T `dynval:"name,omitempty"` // drop zero values
//	Field T `dynval:",flatten"`       // merge a Map-valued field into the
//	                                  // enclosing map
//	Field T `dynval:"-"`              // never serialized
//
// Untagged exported fields use the Go field name; anonymous embedded structs
// are flattened. Unexported fields are skipped.
//
// A Builder holds no traversal state; the zero Builder is ready to use and a
// single Builder may serve concurrent Build calls.
type Builder struct {
	// SkipVersion drops every Version leaf from its enclosing map instead of
	// inserting it. Used for the canonical binary form, where the protocol
	// version is implicit.
	SkipVersion bool
}

// Build walks src and returns the equivalent Value tree. Failures propagate
// immediately; no partial tree is returned.
func (b Builder) Build(src any) (Value, error) {
	switch v := src.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v.Clone(), nil
	case Identifier:
		return NewIdentifier(v), nil
	case Bytes:
		return NewBytes(v), nil
	case FixedBytes:
		return NewFixedBytes(v), nil
	case Version:
		return NewVersion(v), nil
	case Marshaler:
		return v.MarshalValue()
	case []byte:
		return NewBytes(v), nil
	}
	return b.build(reflect.ValueOf(src))
}

func (b Builder) build(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null(), nil
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInteger(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewUInteger(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return NewFloat(rv.Float()), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return b.Build(rv.Elem().Interface())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return NewBytes(rv.Bytes()), nil
		}
		return b.buildArray(rv)
	case reflect.Array:
		return b.buildArray(rv)
	case reflect.Map:
		return b.buildMap(rv)
	case reflect.Struct:
		m := make(map[string]Value)
		if err := b.buildStruct(rv, m); err != nil {
			return Value{}, err
		}
		return NewMap(m), nil
	default:
		// chan, func, complex, uintptr, unsafe pointer: excluded by design.
		return Value{}, NewError(KindUnsupported, "CV-UNS-001",
			fmt.Sprintf("%s values cannot be represented", rv.Kind()))
	}
}

func (b Builder) buildArray(rv reflect.Value) (Value, error) {
	elems := make([]Value, rv.Len())
	for i := range elems {
		ev, err := b.Build(rv.Index(i).Interface())
		if err != nil {
			return Value{}, err
		}
		elems[i] = ev
	}
	return NewArray(elems...), nil
}

func (b Builder) buildMap(rv reflect.Value) (Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return Value{}, NewError(KindSerialization, "CV-SER-001",
			fmt.Sprintf("map keys must be strings, got %s", rv.Type().Key()))
	}
	m := make(map[string]Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ev, err := b.Build(iter.Value().Interface())
		if err != nil {
			return Value{}, err
		}
		if b.SkipVersion && ev.kind == KindVersion {
			continue
		}
		m[iter.Key().String()] = ev
	}
	return NewMap(m), nil
}

func (b Builder) buildStruct(rv reflect.Value, m map[string]Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, opts := parseTag(f.Tag.Get("dynval"))
		if name == "-" && opts == "" {
			continue
		}

		fv := rv.Field(i)
		if f.Anonymous && f.Tag.Get("dynval") == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := b.buildStruct(fv, m); err != nil {
					return err
				}
				continue
			}
		}

		if hasOpt(opts, "omitempty") && fv.IsZero() {
			continue
		}

		ev, err := b.Build(fv.Interface())
		if err != nil {
			return err
		}

		if hasOpt(opts, "flatten") {
			switch ev.kind {
			case KindNull:
			case KindMap:
				for k, e := range ev.m {
					if b.SkipVersion && e.kind == KindVersion {
						continue
					}
					m[k] = e
				}
			default:
				return NewError(KindSerialization, "CV-SER-002",
					fmt.Sprintf("flattened field %s must hold a map, got %s", f.Name, ev.kind))
			}
			continue
		}

		if b.SkipVersion && ev.kind == KindVersion {
			continue
		}
		if name == "" {
			name = f.Name
		}
		m[name] = ev
	}
	return nil
}

func parseTag(tag string) (name, opts string) {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i], tag[i+1:]
	}
	return tag, ""
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}
