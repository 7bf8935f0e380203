package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDuration is returned for text that is neither a Go duration nor a day based duration.
var ErrInvalidDuration = errors.New("invalid duration")

var dayDuration = regexp.MustCompile(`^(\d+d)?(\d+h)?(\d+m)?(\d+s)?$`)

// ParseDuration parses a Go duration string ("1h30m", "250ms") or a duration
// with a day unit ("2d", "1d12h").
func ParseDuration(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}

	matches := dayDuration.FindStringSubmatch(value)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	var (
		duration time.Duration
		hasMatch bool
	)

	for _, match := range matches[1:] {
		if match == "" {
			continue
		}

		hasMatch = true

		unit := match[len(match)-1]
		num, err := strconv.Atoi(match[:len(match)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration segment %q: %w", match, err)
		}

		switch unit {
		case 'd':
			duration += time.Duration(num) * 24 * time.Hour
		case 'h':
			duration += time.Duration(num) * time.Hour
		case 'm':
			duration += time.Duration(num) * time.Minute
		case 's':
			duration += time.Duration(num) * time.Second
		}
	}

	if !hasMatch {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	return duration, nil
}

// Duration is a time.Duration that marshals to its string form and
// unmarshals from either nanoseconds or a ParseDuration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return ErrInvalidDuration
	}
}
