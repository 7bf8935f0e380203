package storecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Davincible/rx-utils/jsonutil"
)

// TimeoutInfinite is the wire value of an entry that never expires.
const TimeoutInfinite = "TimeoutInfinite"

// Timeout is the lifetime of an entry. Only Infinite never expires, any other
// value is finite, negative ones included. On the wire a finite timeout is a
// number of milliseconds.
type Timeout time.Duration

// Infinite marks an entry that never expires.
const Infinite Timeout = math.MinInt64

// IsInfinite reports whether t never expires.
func (t Timeout) IsInfinite() bool {
	return t == Infinite
}

func (t Timeout) String() string {
	if t.IsInfinite() {
		return TimeoutInfinite
	}
	return time.Duration(t).String()
}

func (t Timeout) MarshalJSON() ([]byte, error) {
	if t.IsInfinite() {
		return json.Marshal(TimeoutInfinite)
	}
	return json.Marshal(time.Duration(t).Milliseconds())
}

func (t *Timeout) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*t = Timeout(time.Duration(value * float64(time.Millisecond)))
		return nil
	case string:
		if value == TimeoutInfinite {
			*t = Infinite
			return nil
		}
		return fmt.Errorf("unknown timeout %q", value)
	default:
		return errors.New("timeout must be a number or " + TimeoutInfinite)
	}
}

// Option is the expiry bookkeeping stored with every entry.
type Option struct {
	TimeStart int64   `json:"timeStart"` // write time, epoch milliseconds
	Timeout   Timeout `json:"timeout"`
}

// Entry is the JSON document stored under each cache key.
type Entry struct {
	Key         string `json:"key"`
	Val         string `json:"val"`
	CacheOption Option `json:"cacheOption"`
}

// Expired reports whether the entry is past its timeout at now.
func (e Entry) Expired(now time.Time) bool {
	if e.CacheOption.Timeout.IsInfinite() {
		return false
	}
	age := now.UnixMilli() - e.CacheOption.TimeStart
	return age > time.Duration(e.CacheOption.Timeout).Milliseconds()
}

// wireEntry mirrors Entry with optional fields so that foreign or
// partially written payloads can be told apart from cache entries.
type wireEntry struct {
	Key         string `json:"key"`
	Val         string `json:"val"`
	CacheOption *struct {
		TimeStart *int64   `json:"timeStart"`
		Timeout   *Timeout `json:"timeout"`
	} `json:"cacheOption"`
}

var errNotAnEntry = errors.New("payload is not a cache entry")

// parseEntry decodes a stored payload. It fails for malformed JSON and for
// JSON that lacks the expiry bookkeeping.
func parseEntry(raw string) (Entry, error) {
	w, err := jsonutil.DecodeStr[wireEntry](raw)
	if err != nil {
		return Entry{}, err
	}

	if w.CacheOption == nil || w.CacheOption.TimeStart == nil || w.CacheOption.Timeout == nil {
		return Entry{}, errNotAnEntry
	}

	return Entry{
		Key: w.Key,
		Val: w.Val,
		CacheOption: Option{
			TimeStart: *w.CacheOption.TimeStart,
			Timeout:   *w.CacheOption.Timeout,
		},
	}, nil
}

func encodeEntry(e Entry) (string, error) {
	return jsonutil.Encode(e)
}
