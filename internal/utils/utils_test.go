package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBoundaries(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 15, 4, 5, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), StartOfDay(now))
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, loc), EndOfDay(now))
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), Tomorrow(now))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2024-02-29 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "29.02.2024", "2023-02-29", "2024-13-01", "yesterday"} {
		_, err := ParseDate(bad, time.UTC)
		assert.Error(t, err, bad)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("reader@example.org"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("   "))
	assert.Error(t, ValidateEmail("not-an-address"))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bad source", StripTags("<b>bad</b> source"))
	assert.Equal(t, "a & b", StripTags("a &amp; b"))
	assert.Equal(t, "alert", StripTags(`<script>x()</script><i>alert</i>`))
	assert.Equal(t, "", StripTags("  "))
}
