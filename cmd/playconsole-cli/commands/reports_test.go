package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	year, month, err := parseYearMonth([]string{"2013", "05"})
	require.NoError(t, err)
	require.Equal(t, 2013, year)
	require.Equal(t, 5, month)

	_, _, err = parseYearMonth([]string{"2013", "may"})
	require.Error(t, err)
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2013-05-01", "2013-05-02")
	require.NoError(t, err)
	require.Equal(t, time.Date(2013, time.May, 1, 0, 0, 0, 0, time.Local), start)
	require.Equal(t, time.Date(2013, time.May, 2, 0, 0, 0, 0, time.Local), end)

	_, _, err = parseRange("2013-05-01", "")
	require.Error(t, err)
}
