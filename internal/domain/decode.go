package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeRawRows parses a JSON array of row objects. A payload that is not an
// array, or an element that is not an object, is an *InvalidInputError.
func DecodeRawRows(data []byte) ([]RawRow, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return nil, err
	}

	rows := make([]RawRow, len(elems))
	for i, elem := range elems {
		if !isObject(elem) {
			return nil, &InvalidInputError{Index: i, Reason: "expected a row object"}
		}
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()
		var row RawRow
		if err := dec.Decode(&row); err != nil {
			return nil, &InvalidInputError{Index: i, Reason: err.Error()}
		}
		rows[i] = row
	}
	return rows, nil
}

// DecodeSamples parses a JSON array of canonical samples, as handed back by
// a storage collaborator.
func DecodeSamples(data []byte) ([]Sample, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, len(elems))
	for i, elem := range elems {
		if !isObject(elem) {
			return nil, &InvalidInputError{Index: i, Reason: "expected a sample object"}
		}
		if err := json.Unmarshal(elem, &samples[i]); err != nil {
			return nil, &InvalidInputError{Index: i, Reason: err.Error()}
		}
	}
	return samples, nil
}

func decodeArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &InvalidInputError{Index: -1, Reason: "expected a JSON array"}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &InvalidInputError{Index: -1, Reason: fmt.Sprintf("decode array: %v", err)}
	}
	return elems, nil
}

func isObject(elem json.RawMessage) bool {
	elem = bytes.TrimSpace(elem)
	return len(elem) > 0 && elem[0] == '{'
}
