package tasks

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one attribute of a partial update. Set is false when the caller
// omitted the attribute; a present JSON null yields Set with the zero Value,
// which lets nullable attributes be cleared explicitly.
type Field[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ID accepts both 7 and "7" on the wire.
type ID uint

func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}

	*id = ID(n)
	return nil
}

const dateLayout = "2006-01-02"

// Date is a due date on the wire: either YYYY-MM-DD or RFC 3339.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)

	if t, err := time.Parse(dateLayout, raw); err == nil {
		d.Time = t
		return nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", raw)
	}

	d.Time = t
	return nil
}

// timePtr unwraps an optional date into the column value.
func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time.UTC()
	return &t
}
