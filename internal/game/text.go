package game

import "fmt"

// The enums travel as their names in JSON.

type enum interface {
	~uint8
	String() string
}

func parseEnum[T enum](b []byte, last T, kind string) (T, error) {
	for v := T(0); v <= last; v++ {
		if v.String() == string(b) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, b)
}

func (s CellState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CellState) UnmarshalText(b []byte) (err error) {
	*s, err = parseEnum(b, Miss, "cell state")
	return err
}

func (t ShipType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ShipType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseShipType(string(b))
	return err
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) (err error) {
	*o, err = ParseOrientation(string(b))
	return err
}

func (p Player) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Player) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePlayer(string(b))
	return err
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) (err error) {
	*s, err = parseEnum(b, StageResolution, "stage")
	return err
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) (err error) {
	*s, err = parseEnum(b, StateAiWon, "state")
	return err
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) (err error) {
	*o, err = parseEnum(b, OutcomeSunk, "outcome")
	return err
}
