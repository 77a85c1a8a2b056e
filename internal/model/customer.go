// internal/model/customer.go
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// CustomerDetails is the record posted to /publish.
type CustomerDetails struct {
	Name    string `db:"name" json:"name"`
	Surname string `db:"surname" json:"surname"`
	ID      string `db:"id" json:"id"`
	Email   string `db:"email" json:"email"`
	Mobile  string `db:"mobile" json:"mobile"`
}

// requiredFields lists the keys of a customer record in the order they are reported
// when missing. Keys match exactly; "Name" is not "name".
var requiredFields = []string{"name", "surname", "id", "email", "mobile"}

// DecodeCustomerDetails reads exactly one JSON object from r. Every field must be
// present exactly once and be a string; unknown fields are ignored.
func DecodeCustomerDetails(r io.Reader) (*CustomerDetails, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty body")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %s", tokenKind(tok))
	}

	values := make(map[string]string, len(requiredFields))
	seen := make(map[string]bool, len(requiredFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON: unexpected %s in object", tokenKind(tok))
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if !slices.Contains(requiredFields, key) {
			continue
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		// null counts as absent
		if string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, fmt.Errorf("field %q must be a string, got %s", key, typeErr.Value)
			}
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		values[key] = s
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// only whitespace may follow the object
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	for _, name := range requiredFields {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("missing field %q", name)
		}
	}

	return &CustomerDetails{
		Name:    values["name"],
		Surname: values["surname"],
		ID:      values["id"],
		Email:   values["email"],
		Mobile:  values["mobile"],
	}, nil
}

func tokenKind(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "array"
		}
		return string(v)
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// UnmarshalCustomerDetails is DecodeCustomerDetails over a byte slice.
func UnmarshalCustomerDetails(data []byte) (*CustomerDetails, error) {
	return DecodeCustomerDetails(bytes.NewReader(data))
}

// DecodeCustomerList reads a JSON array of customer records, applying the same field
// rules to every element.
func DecodeCustomerList(r io.Reader) ([]CustomerDetails, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	customers := make([]CustomerDetails, 0, len(raw))
	for i, item := range raw {
		c, err := UnmarshalCustomerDetails(item)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		customers = append(customers, *c)
	}
	return customers, nil
}
