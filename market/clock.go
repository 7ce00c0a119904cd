package market

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClockTime is a wall-clock hour and minute, e.g. 09:45.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("bad clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return ClockTime{}, fmt.Errorf("bad clock hour %q: %w", s, err)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return ClockTime{}, fmt.Errorf("bad clock minute %q: %w", s, err)
	}
	ct := ClockTime{Hour: h, Minute: m}
	if !ct.Valid() {
		return ClockTime{}, fmt.Errorf("clock time out of range: %q", s)
	}
	return ct, nil
}

func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// Minutes is the number of minutes since midnight.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	ct, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

func (c ClockTime) MarshalYAML() (interface{}, error) { return c.String(), nil }

func (c *ClockTime) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return c.UnmarshalText([]byte(s))
}
