package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// songFields has the Song layout without its JSON methods
type songFields Song

// songKeys holds the lowercased JSON names of the modeled fields
var songKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	t := reflect.TypeOf(songFields{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[strings.ToLower(name)] = struct{}{}
		}
	}
	return keys
}()

// UnmarshalJSON decodes the modeled fields and keeps every other key in Extra
func (s *Song) UnmarshalJSON(data []byte) error {
	var known songFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		// encoding/json matches field names case-insensitively
		if _, ok := songKeys[strings.ToLower(k)]; ok {
			delete(all, k)
		}
	}

	*s = Song(known)
	s.Extra = nil
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// MarshalJSON writes the modeled fields followed by Extra in key order
func (s Song) MarshalJSON() ([]byte, error) {
	known, err := encodeCompact(songFields(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		if _, ok := songKeys[strings.ToLower(k)]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for i, k := range keys {
		if i > 0 || len(known) > 2 {
			buf.WriteByte(',')
		}
		name, err := encodeCompact(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(s.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeCompact marshals v without HTML escaping and without the trailing newline
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
