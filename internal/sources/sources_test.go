package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewRemotive(nil))
	r.Register(NewGreenhouse(nil))
	r.Register(NewRemotive(nil)) // re-register keeps order stable

	assert.Equal(t, []string{"remotive", "greenhouse"}, r.Names())
	assert.NotNil(t, r.Get("greenhouse"))
	assert.Nil(t, r.Get("unknown"))
	require.Len(t, r.All(), 2)
	assert.Equal(t, "remotive", r.All()[0].Name())
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(nil)

	for _, name := range []string{
		"greenhouse", "lever", "workday", "indeed", "linkedin",
		"timesjobs", "instahyre", "remotive", "weworkremotely",
	} {
		assert.NotNil(t, r.Get(name), "missing source %s", name)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	idx, page := decodeCursor(encodeCursor(3, 7))
	assert.Equal(t, 3, idx)
	assert.Equal(t, 7, page)

	idx, page = decodeCursor("")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, page)

	idx, page = decodeCursor("garbage")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, page)
}

func TestMatchesGeoFilter(t *testing.T) {
	assert.True(t, matchesGeoFilter("Bangalore, India"))
	assert.True(t, matchesGeoFilter("Remote"))
	assert.True(t, matchesGeoFilter("Remote - Worldwide"))
	assert.False(t, matchesGeoFilter("San Francisco, CA"))
	assert.False(t, matchesGeoFilter(""))
}

func TestSplitFeedTitle(t *testing.T) {
	company, title := splitFeedTitle("Acme: Senior Go Developer")
	assert.Equal(t, "Acme", company)
	assert.Equal(t, "Senior Go Developer", title)

	company, title = splitFeedTitle("Senior Go Developer")
	assert.Empty(t, company)
	assert.Equal(t, "Senior Go Developer", title)
}

func TestLocationOrRemote(t *testing.T) {
	assert.Equal(t, "Remote", locationOrRemote("  "))
	assert.Equal(t, "Pune", locationOrRemote("Pune"))
}

func TestParseWorkdayPostedOn(t *testing.T) {
	ts, ok := parseWorkdayPostedOn("Posted 3 Days Ago")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -3), ts, time.Minute)

	_, ok = parseWorkdayPostedOn("Posted Today")
	assert.True(t, ok)

	_, ok = parseWorkdayPostedOn("sometime last week")
	assert.False(t, ok)
}
