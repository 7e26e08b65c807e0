package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochRoundTrip(t *testing.T) {
	millis, err := FromEpoch("2026-09-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01T10:30:00Z", FormatEpoch(millis))
}

func TestFromEpochRejectsGarbage(t *testing.T) {
	_, err := FromEpoch("next tuesday")
	assert.Error(t, err)
}

func TestFormatEpochIsUTC(t *testing.T) {
	millis, err := FromEpoch("2026-09-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01T10:00:00Z", FormatEpoch(millis))
}

func TestSanitize(t *testing.T) {
	type form struct {
		Name string
		Tags []string
		Age  int
	}

	f := &form{Name: "  alice  ", Tags: []string{" a ", "b "}, Age: 30}
	Sanitize(f)

	assert.Equal(t, "alice", f.Name)
	assert.Equal(t, []string{"a", "b"}, f.Tags)
	assert.Equal(t, 30, f.Age)
}

func TestSanitizePanicsOnNonPointer(t *testing.T) {
	assert.Panics(t, func() { Sanitize(struct{}{}) })
}
