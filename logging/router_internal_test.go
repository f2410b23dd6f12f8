package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDropWarningOncePerInterval(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	warn := &dropWarning{every: time.Second}

	require.True(t, warn.due(at))
	require.False(t, warn.due(at.Add(500*time.Millisecond)))
	require.True(t, warn.due(at.Add(time.Second)))
	require.False(t, warn.due(at.Add(1500*time.Millisecond)))
}

func TestStampKeepsEventFields(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Router{clock: ClockFunc(func() time.Time { return at }), fields: map[string]any{"run": "r1", "seed": 7}}
	original := Event{Type: "x", Extra: map[string]any{"seed": 9}}

	stamped := r.stamp(original)

	require.Equal(t, at, stamped.Time)
	require.Equal(t, map[string]any{"run": "r1", "seed": 9}, stamped.Extra)
	require.Equal(t, map[string]any{"seed": 9}, original.Extra, "the published event is not mutated")
}
