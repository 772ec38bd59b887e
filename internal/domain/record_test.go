package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testObserverTime = "10:32"

// testRow returns a well-formed input row for the given date.
func testRow(date string) []string {
	return []string{
		date,
		"clear sky/haze", // condition
		"21/23",          // rh
		"", "", "", "",   // extra
		testObserverTime + "/10:40", // observer time
		"10:53",                     // nws time
		"24.4",                      // nws temp
		"-12.5/-12.1",               // te sky
		"-15.2",                     // flir sky
		"-14.1",                     // ames1 sky
		"-13.9",                     // ames2 sky
		"31.2",                      // te ground
		"30.4",                      // flir ground
		"29.8",                      // ames1 ground
		"30.1",                      // ames2 ground
		"light wind/contrails",      // comments
	}
}

func TestParseInputRecord(t *testing.T) {
	t.Run("well formed row", func(t *testing.T) {
		rec, err := ParseInputRecord(testRow("05/03/2019"), 2)
		require.NoError(t, err)

		assert.Equal(t, 2, rec.Line)
		assert.Equal(t, time.Date(2019, time.May, 3, 0, 0, 0, 0, time.UTC), rec.Date)
		assert.Equal(t, Readings{"clear sky", "haze"}, rec.Condition)
		assert.Equal(t, "clear sky", rec.Condition.First())
		assert.Equal(t, "21", rec.RelativeHumidity.First())
		assert.Equal(t, testObserverTime, rec.ObserverTime.First())
		assert.Equal(t, "-12.5", rec.TESky.First())
		assert.Equal(t, "30.1", rec.AMES2Ground.First())
		assert.Equal(t, Readings{"light wind", "contrails"}, rec.Comments)
	})

	t.Run("non padded date", func(t *testing.T) {
		rec, err := ParseInputRecord(testRow("5/3/2019"), 2)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2019, time.May, 3, 0, 0, 0, 0, time.UTC), rec.Date)
	})

	t.Run("too few columns", func(t *testing.T) {
		_, err := ParseInputRecord(testRow("5/3/2019")[:10], 7)
		require.ErrorIs(t, err, ErrMalformedRow)
		assert.Contains(t, err.Error(), "line 7")
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseInputRecord(testRow("2019-05-03"), 3)
		require.ErrorIs(t, err, ErrMalformedRow)
	})
}

func TestInputRecord_ObservedAt(t *testing.T) {
	rec, err := ParseInputRecord(testRow("5/3/2019"), 2)
	require.NoError(t, err)

	at, err := rec.ObservedAt()
	require.NoError(t, err)
	assert.Equal(t, 10, at.Hour())
	assert.Equal(t, 32, at.Minute())

	rec.ObserverTime = Readings{"noonish"}
	_, err = rec.ObservedAt()
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestParseClock(t *testing.T) {
	cases := map[string][2]int{
		"10:32":    {10, 32},
		"7:05":     {7, 5},
		"13:45:10": {13, 45},
		"1:15 PM":  {13, 15},
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want[0], got.Hour(), in)
		assert.Equal(t, want[1], got.Minute(), in)
	}
}

func TestFormatDate_NotPadded(t *testing.T) {
	assert.Equal(t, "5/3/2019", FormatDate(time.Date(2019, time.May, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12/25/2019", FormatDate(time.Date(2019, time.December, 25, 0, 0, 0, 0, time.UTC)))
}

func TestIndexByDate_FirstOccurrenceWins(t *testing.T) {
	d1 := time.Date(2019, time.May, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2019, time.May, 4, 0, 0, 0, 0, time.UTC)
	idx := IndexByDate([]InputRecord{{Date: d1}, {Date: d2}, {Date: d1}})

	assert.Equal(t, 0, idx[DateKey(d1)])
	assert.Equal(t, 1, idx[DateKey(d2)])
	assert.Len(t, idx, 2)
}
