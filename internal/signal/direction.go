package signal

import (
	"encoding/json"
	"fmt"
)

// Direction is the outcome of one detector evaluation.
// The zero value is None.
type Direction int

const (
	None Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case None:
		return "NONE"
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// IsSignal reports whether d is Long or Short.
func (d Direction) IsSignal() bool {
	return d == Long || d == Short
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "NONE", "":
		*d = None
	case "LONG":
		*d = Long
	case "SHORT":
		*d = Short
	default:
		return fmt.Errorf("signal: unknown direction %q", s)
	}
	return nil
}
