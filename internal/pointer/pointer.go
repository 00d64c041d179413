// Package pointer flattens a structured record into the ordered list of its leaf
// addresses (JSON-Pointer-like paths).
//
// Traversal is depth-first. Arrays contribute one address per element in
// ascending index order, objects one address per key in the record's own key
// order, and every other value (scalars, null) is a leaf. Raw JSON records keep
// their document key order; Go maps have no order of their own, so their keys
// are visited sorted.
package pointer

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/steveyegge/cvcheck/internal/types"
)

// ErrCyclicRecord is returned when a record refers back to one of its ancestors
var ErrCyclicRecord = errors.New("record contains a cyclic reference")

// ErrInvalidJSON is returned by IndexJSON for malformed input
var ErrInvalidJSON = errors.New("record is not valid JSON")

var keyEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Index returns the address index of record.
//
// json.RawMessage and []byte values are treated as JSON documents (see IndexJSON).
// Any other value is walked as a Go value: maps with string keys, slices, arrays,
// pointers and interfaces are containers; structs are indexed through their JSON
// encoding; everything else is a leaf.
func Index(record any) (types.AddressIndex, error) {
	switch r := record.(type) {
	case json.RawMessage:
		return IndexJSON(r)
	case []byte:
		return IndexJSON(r)
	}

	w := &walker{active: make(map[visitKey]bool)}
	if err := w.walk(reflect.ValueOf(record), ""); err != nil {
		return types.AddressIndex{}, err
	}
	return types.NewAddressIndex(w.addrs), nil
}

// IndexJSON returns the address index of a JSON document, preserving the
// document's own key order.
func IndexJSON(data []byte) (types.AddressIndex, error) {
	if !gjson.ValidBytes(data) {
		return types.AddressIndex{}, ErrInvalidJSON
	}
	var addrs []types.Address
	walkJSON(gjson.ParseBytes(data), "", &addrs)
	return types.NewAddressIndex(addrs), nil
}

// ToColumn converts an address to a flat column name: "/a/0/b" -> "a_0_b"
func ToColumn(addr types.Address) string {
	s := strings.TrimPrefix(string(addr), "/")
	return strings.ReplaceAll(s, "/", "_")
}

// EscapeKey escapes an object key for use as one address segment (RFC 6901)
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}

func leaf(base string) types.Address {
	if base == "" {
		return types.RootAddress
	}
	return types.Address(base)
}

func walkJSON(v gjson.Result, base string, out *[]types.Address) {
	switch {
	case v.IsArray():
		i := 0
		v.ForEach(func(_, elem gjson.Result) bool {
			walkJSON(elem, base+"/"+strconv.Itoa(i), out)
			i++
			return true
		})
	case v.IsObject():
		v.ForEach(func(key, elem gjson.Result) bool {
			walkJSON(elem, base+"/"+EscapeKey(key.String()), out)
			return true
		})
	default:
		*out = append(*out, leaf(base))
	}
}

// visitKey identifies a container on the current traversal path
type visitKey struct {
	ptr  uintptr
	len  int
	kind reflect.Kind
}

type walker struct {
	addrs  []types.Address
	active map[visitKey]bool
}

// enter marks a container as being on the path; it fails if it already is.
func (w *walker) enter(k visitKey, base string) error {
	if w.active[k] {
		return fmt.Errorf("%w at %s", ErrCyclicRecord, leaf(base))
	}
	w.active[k] = true
	return nil
}

func (w *walker) walk(v reflect.Value, base string) error {
	if !v.IsValid() {
		w.addrs = append(w.addrs, leaf(base))
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			w.addrs = append(w.addrs, leaf(base))
			return nil
		}
		return w.walk(v.Elem(), base)

	case reflect.Pointer:
		if v.IsNil() {
			w.addrs = append(w.addrs, leaf(base))
			return nil
		}
		k := visitKey{ptr: v.Pointer(), kind: reflect.Pointer}
		if err := w.enter(k, base); err != nil {
			return err
		}
		defer delete(w.active, k)
		return w.walk(v.Elem(), base)

	case reflect.Map:
		if v.IsNil() {
			w.addrs = append(w.addrs, leaf(base))
			return nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("index %s: unsupported map key type %s", leaf(base), v.Type().Key())
		}
		k := visitKey{ptr: v.Pointer(), kind: reflect.Map}
		if err := w.enter(k, base); err != nil {
			return err
		}
		defer delete(w.active, k)

		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			if err := w.walk(v.MapIndex(key), base+"/"+EscapeKey(key.String())); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		if v.IsNil() {
			w.addrs = append(w.addrs, leaf(base))
			return nil
		}
		// []byte encodes as a JSON string
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.addrs = append(w.addrs, leaf(base))
			return nil
		}
		k := visitKey{ptr: v.Pointer(), len: v.Len(), kind: reflect.Slice}
		if err := w.enter(k, base); err != nil {
			return err
		}
		defer delete(w.active, k)
		return w.walkElems(v, base)

	case reflect.Array:
		return w.walkElems(v, base)

	case reflect.Struct:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			var unsupported *json.UnsupportedValueError
			if errors.As(err, &unsupported) && strings.Contains(unsupported.Str, "cycle") {
				return fmt.Errorf("%w at %s: %v", ErrCyclicRecord, leaf(base), err)
			}
			return fmt.Errorf("index %s: %w", leaf(base), err)
		}
		walkJSON(gjson.ParseBytes(data), base, &w.addrs)
		return nil

	default:
		w.addrs = append(w.addrs, leaf(base))
		return nil
	}
}

func (w *walker) walkElems(v reflect.Value, base string) error {
	for i := 0; i < v.Len(); i++ {
		if err := w.walk(v.Index(i), base+"/"+strconv.Itoa(i)); err != nil {
			return err
		}
	}
	return nil
}
