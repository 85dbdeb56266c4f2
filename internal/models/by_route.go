package models

import (
	"bytes"
	"encoding/json"
)

// ByRoute is a mapping keyed by route that remembers insertion order.
// The zero value is ready to use.
type ByRoute[V any] struct {
	keys   []RouteID
	values map[RouteID]V
}

// RouteEntry is one key/value pair of a ByRoute, used for ordered iteration.
type RouteEntry[V any] struct {
	Route RouteID
	Value V
}

// Departures maps each discovered route to its departure record.
type Departures = ByRoute[*DepartureRecord]

// Arrivals maps discovered routes to an arrival record.
type Arrivals = ByRoute[ArrivalRecord]

// Set stores v under id. A new key is appended to the order; an existing key keeps its position.
func (m *ByRoute[V]) Set(id RouteID, v V) {
	if m.values == nil {
		m.values = make(map[RouteID]V)
	}
	if _, ok := m.values[id]; !ok {
		m.keys = append(m.keys, id)
	}
	m.values[id] = v
}

func (m *ByRoute[V]) Get(id RouteID) (V, bool) {
	v, ok := m.values[id]
	return v, ok
}

func (m *ByRoute[V]) Has(id RouteID) bool {
	_, ok := m.values[id]
	return ok
}

func (m *ByRoute[V]) Len() int {
	return len(m.keys)
}

// Keys returns the routes in insertion order.
func (m *ByRoute[V]) Keys() []RouteID {
	out := make([]RouteID, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the key/value pairs in insertion order.
func (m *ByRoute[V]) Entries() []RouteEntry[V] {
	out := make([]RouteEntry[V], 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, RouteEntry[V]{Route: k, Value: m.values[k]})
	}
	return out
}

// MarshalJSON writes a JSON object whose members follow insertion order.
func (m *ByRoute[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping member order.
func (m *ByRoute[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = ByRoute[V]{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v V
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Set(RouteID(key), v)
	}
	_, err := dec.Token()
	return err
}
