package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Seconds is a duration that accepts either a Go duration string ("30s",
// "2m") or a bare number interpreted as seconds ("30", 30, 4.5). The original
// INI configs used plain numbers, so both spellings stay valid.
type Seconds time.Duration

func (s Seconds) Duration() time.Duration { return time.Duration(s) }

// Or returns the duration, or def when unset.
func (s Seconds) Or(def time.Duration) time.Duration {
	if s <= 0 {
		return def
	}
	return time.Duration(s)
}

// Units returns the value in whole seconds (the display loop's time unit).
func (s Seconds) Units() int { return int(time.Duration(s) / time.Second) }

func (s *Seconds) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}

	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*s = 0
			return nil
		}
		// Plain numeric strings are seconds, anything else is a duration.
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return s.fromSeconds(f)
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", str, err)
		}
		if d < 0 {
			return fmt.Errorf("duration must be >= 0, got %q", str)
		}
		*s = Seconds(d)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", raw, err)
	}
	return s.fromSeconds(f)
}

func (s *Seconds) fromSeconds(f float64) error {
	if f < 0 {
		return fmt.Errorf("duration must be >= 0, got %v", f)
	}
	*s = Seconds(time.Duration(f * float64(time.Second)))
	return nil
}

func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(s).String())
}
