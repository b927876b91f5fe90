package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type ItemsKind int

const (
	ItemsRaw ItemsKind = iota
	ItemsStructured
	ItemsOpaque
)

type Item struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name     string          `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	it.Name = wire.Name
	it.Quantity = ""

	q := bytes.TrimSpace(wire.Quantity)
	if len(q) == 0 || bytes.Equal(q, []byte("null")) {
		return nil
	}
	switch q[0] {
	case '"':
		return json.Unmarshal(q, &it.Quantity)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		it.Quantity = string(q)
		return nil
	}
	return fmt.Errorf("unsupported quantity %s", q)
}

// Items is the items column of an order. Submissions store it either as free
// text or as a list of name/quantity lines; anything else is kept verbatim.
type Items struct {
	Kind   ItemsKind
	Raw    string
	Lines  []Item
	Opaque json.RawMessage
}

func RawItems(s string) Items {
	return Items{Kind: ItemsRaw, Raw: s}
}

func StructuredItems(lines ...Item) Items {
	return Items{Kind: ItemsStructured, Lines: lines}
}

func (i Items) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case ItemsStructured:
		if i.Lines == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(i.Lines)
	case ItemsOpaque:
		if len(i.Opaque) == 0 {
			return []byte("null"), nil
		}
		return i.Opaque, nil
	default:
		return json.Marshal(i.Raw)
	}
}

func (i *Items) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty items")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = RawItems(s)
		return nil
	case '[':
		var lines []Item
		if err := json.Unmarshal(data, &lines); err == nil {
			*i = StructuredItems(lines...)
			return nil
		}
	}

	if !json.Valid(data) {
		return errors.New("items is not valid json")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*i = Items{Kind: ItemsOpaque, Opaque: buf.Bytes()}
	return nil
}

func (i Items) Value() (driver.Value, error) {
	b, err := i.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (i *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Items{}
		return nil
	case []byte:
		return i.UnmarshalJSON(v)
	case string:
		return i.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("cannot scan %T into Items", src)
}

// FormatItems renders items for display: text verbatim, lines as
// "name (quantity)" joined by commas, anything else as compact JSON.
func FormatItems(items Items) string {
	switch items.Kind {
	case ItemsStructured:
		parts := make([]string, 0, len(items.Lines))
		for _, it := range items.Lines {
			parts = append(parts, fmt.Sprintf("%s (%s)", it.Name, it.Quantity))
		}
		return strings.Join(parts, ", ")
	case ItemsOpaque:
		if len(items.Opaque) == 0 {
			return "null"
		}
		return string(items.Opaque)
	default:
		return items.Raw
	}
}
