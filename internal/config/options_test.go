package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListJSONForm(t *testing.T) {
	got := ParseList(`["en","fr"]`, []string{"en"})
	assert.Equal(t, []string{"en", "fr"}, got)
}

func TestParseListCommaForm(t *testing.T) {
	got := ParseList("en, fr ,de", nil)
	assert.Equal(t, []string{"en", "fr", "de"}, got)
}

func TestParseListMalformedJSONFallsBackToDefault(t *testing.T) {
	def := []string{"en"}
	assert.Equal(t, def, ParseList(`["en",fr]`, def))
	assert.Equal(t, def, ParseList(`["en",broken`, def))
}

func TestParseListEmptyAndWhitespace(t *testing.T) {
	def := []string{"en"}
	assert.Equal(t, def, ParseList("", def))
	assert.Equal(t, def, ParseList("   ", def))
	assert.Equal(t, def, ParseList(" , , ", def))
	assert.Equal(t, def, ParseList("[]", def))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 7, ParseInt("7", 3))
	assert.Equal(t, 7, ParseInt(" 7 ", 3))
	assert.Equal(t, 3, ParseInt("seven", 3))
	assert.Equal(t, 3, ParseInt("", 3))
}

func TestFromEnvDefaults(t *testing.T) {
	// ensure the known keys are unset for this process
	for _, k := range []string{"REGION", "ORIGINAL_LANGS", "SUBS_INCLUDE", "DISCOVER_PAGES", "IMDB_RATINGS_CSV_PATH"} {
		t.Setenv(k, "")
	}

	opts := FromEnv()
	assert.Equal(t, "US", opts.Region)
	assert.Equal(t, []string{"en"}, opts.OriginalLangs)
	assert.Empty(t, opts.SubsInclude)
	assert.Equal(t, 3, opts.DiscoverPages)
	assert.Equal(t, "data/ratings.csv", opts.RatingsCSVPath)
}

func TestFromEnvBothListForms(t *testing.T) {
	t.Setenv("REGION", "DE")
	t.Setenv("ORIGINAL_LANGS", `["en","de"]`)
	t.Setenv("SUBS_INCLUDE", "netflix, max")
	t.Setenv("DISCOVER_PAGES", "5")

	opts := FromEnv()
	assert.Equal(t, "DE", opts.Region)
	assert.Equal(t, []string{"en", "de"}, opts.OriginalLangs)
	assert.Equal(t, []string{"netflix", "max"}, opts.SubsInclude)
	assert.Equal(t, 5, opts.DiscoverPages)
}

func TestFromEnvGarbageFallsBack(t *testing.T) {
	t.Setenv("ORIGINAL_LANGS", `["en",broken`)
	t.Setenv("DISCOVER_PAGES", "lots")

	opts := FromEnv()
	assert.Equal(t, []string{"en"}, opts.OriginalLangs)
	assert.Equal(t, 3, opts.DiscoverPages)
}
