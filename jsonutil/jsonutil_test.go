package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	tests := []struct {
		name    string
		in      string
		want    point
		wantErr bool
	}{
		{"valid", `{"x":1,"y":2}`, point{1, 2}, false},
		{"empty", ``, point{}, true},
		{"malformed", `{"x":`, point{}, true},
		{"wrong type", `{"x":"one"}`, point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStr[point](tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode[int](nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestKeyIsStableForMaps(t *testing.T) {
	a, err := Key(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	b, err := Key(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, `{"a":1,"b":2}`, a)
}

func TestKeyUnsupported(t *testing.T) {
	_, err := Key(make(chan int))
	assert.Error(t, err)
}
