package persistence

import (
	"encoding/json"
)

// encodeMap serializes a data map as JSON. nil maps encode to nil so
// an absent map round-trips as absent rather than as "{}".
func encodeMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// decodeMap is the inverse of encodeMap.
func decodeMap(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// encodeStrings serializes a string slice as JSON, preserving nil.
func encodeStrings(s []string) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var s []string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
