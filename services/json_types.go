package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// FlexibleID menerima id berupa angka JSON atau string ("9", "default_9")
type FlexibleID struct {
	raw     string
	numeric bool
	present bool
}

func NumericID(id uint) FlexibleID {
	return FlexibleID{raw: strconv.FormatUint(uint64(id), 10), numeric: true, present: true}
}

func StringID(raw string) FlexibleID {
	return FlexibleID{raw: raw, present: true}
}

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = FlexibleID{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID{raw: strings.TrimSpace(s), present: strings.TrimSpace(s) != ""}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("id must be a number or a string")
	}
	*f = FlexibleID{raw: n.String(), numeric: true, present: true}
	return nil
}

func (f FlexibleID) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	if f.numeric {
		return []byte(f.raw), nil
	}
	return json.Marshal(f.raw)
}

func (f FlexibleID) Present() bool { return f.present }

func (f FlexibleID) String() string { return f.raw }

// Resolve -> id integer positif. String memakai digit di ujungnya,
// jadi "default_9" menjadi 9.
func (f FlexibleID) Resolve() (uint, bool) {
	if !f.present {
		return 0, false
	}
	if f.numeric {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil || v < 1 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, false
		}
		return uint(v), true
	}
	m := trailingDigits.FindString(f.raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(m, 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// looseString menerima string atau angka (processed_by bisa berupa id user)
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("value must be a string or a number")
	}
	*s = looseString(n.String())
	return nil
}

type RefillItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category,omitempty"`
}

// RefillItems menerima array [{name, quantity}] atau object {"Pork": 2, "Rice": 1}.
// Urutan key object dipertahankan.
type RefillItems []RefillItem

func (r *RefillItems) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = nil
		return nil
	}

	switch b[0] {
	case '[':
		var raw []struct {
			Name     string          `json:"name"`
			Quantity json.RawMessage `json:"quantity"`
			Qty      json.RawMessage `json:"qty"`
			Category string          `json:"category"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("items: %w", err)
		}
		items := make(RefillItems, 0, len(raw))
		for _, it := range raw {
			q := it.Quantity
			if len(q) == 0 {
				q = it.Qty
			}
			qty, err := parseQuantity(q)
			if err != nil {
				return fmt.Errorf("items[%s]: %w", it.Name, err)
			}
			items = append(items, RefillItem{Name: strings.TrimSpace(it.Name), Quantity: qty, Category: it.Category})
		}
		*r = items
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(b))
		if _, err := dec.Token(); err != nil {
			return err
		}
		items := RefillItems{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			name, _ := tok.(string)
			var q json.RawMessage
			if err := dec.Decode(&q); err != nil {
				return err
			}
			qty, err := parseQuantity(q)
			if err != nil {
				return fmt.Errorf("items[%s]: %w", name, err)
			}
			items = append(items, RefillItem{Name: strings.TrimSpace(name), Quantity: qty})
		}
		*r = items
		return nil
	default:
		return errors.New("items must be an array or an object")
	}
}

func parseQuantity(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errors.New("quantity must be a number")
		}
		return n, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errors.New("quantity must be a number")
	}
	return int(f), nil
}

// Selected -> item dengan quantity > 0
func (r RefillItems) Selected() RefillItems {
	out := RefillItems{}
	for _, it := range r {
		if it.Quantity > 0 && it.Name != "" {
			out = append(out, it)
		}
	}
	return out
}

// Summary -> "Pork (2), Rice (1)" atau "General Refill" jika tidak ada item
func (r RefillItems) Summary() string {
	selected := r.Selected()
	if len(selected) == 0 {
		return GeneralRefill
	}
	parts := make([]string, 0, len(selected))
	for _, it := range selected {
		parts = append(parts, fmt.Sprintf("%s (%d)", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

const GeneralRefill = "General Refill"
