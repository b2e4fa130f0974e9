package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPreviousMonths(t *testing.T) {
	now := time.Date(2013, time.February, 14, 10, 0, 0, 0, time.UTC)
	require.Equal(t, [][2]int{
		{2013, 1},
		{2012, 12},
		{2012, 11},
	}, PreviousMonths(now, 3))

	require.Empty(t, PreviousMonths(now, 0))
}

func TestStandardImpl(t *testing.T) {
	clock, err := NewStandardImpl("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, clock.Location())
	require.Equal(t, time.UTC, clock.Now().Location())

	_, err = NewStandardImpl("Not/AZone")
	require.Error(t, err)
}
