package seen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchfeed-engine/internal/domain"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRatingsCSVStandardExport(t *testing.T) {
	path := writeCSV(t, `Const,Your Rating,Date Rated,Title,Title Type,Year
tt0133093,9,2020-01-01,The Matrix,movie,1999
tt0903747,10,2021-05-05,Breaking Bad,TV Series,2008
`)

	idx, err := LoadRatingsCSV(path)
	require.NoError(t, err)

	assert.True(t, idx.HasID("tt0133093"))
	assert.True(t, idx.HasID("tt0903747"))
	assert.True(t, idx.HasTitle("movie", "The Matrix", 1999))
	assert.True(t, idx.HasTitle("tvSeries", "Breaking Bad", 2008))
}

func TestLoadRatingsCSVSniffsIDFromURLColumn(t *testing.T) {
	path := writeCSV(t, `Title,Year,URL
Dune,2021,https://www.imdb.com/title/tt1160419/
`)

	idx, err := LoadRatingsCSV(path)
	require.NoError(t, err)
	assert.True(t, idx.HasID("tt1160419"))
	assert.True(t, idx.HasTitle("movie", "Dune", 2021))
}

func TestLoadRatingsCSVMissingFileIsEmptyNotError(t *testing.T) {
	idx, err := LoadRatingsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
}

func TestLoadRatingsCSVRaggedRowsAreTolerated(t *testing.T) {
	path := writeCSV(t, `Const,Title,Title Type,Year
tt0133093,The Matrix,movie,1999
tt0000001
tt0903747,Breaking Bad,TV Series,2008
`)

	idx, err := LoadRatingsCSV(path)
	require.NoError(t, err)
	assert.True(t, idx.HasID("tt0133093"))
	assert.True(t, idx.HasID("tt0903747"))
	assert.True(t, idx.HasID("tt0000001")) // id still sniffed from the short row
}

func TestFilterDropsSeen(t *testing.T) {
	idx := NewIndex()
	idx.AddID("tt0133093")
	idx.AddTitle("tvSeries", "Breaking Bad", 2008)

	items := []domain.CandidateItem{
		{Title: "The Matrix", Type: domain.KindMovie, Year: 1999, IMDBID: "tt0133093"},
		{Title: "Breaking Bad", Type: domain.KindTVSeries, Year: 2008},
		{Title: "Severance", Type: domain.KindTVSeries, Year: 2022},
	}

	kept := Filter(items, idx)
	require.Len(t, kept, 1)
	assert.Equal(t, "Severance", kept[0].Title)
}

func TestFilterEmptyIndexKeepsEverything(t *testing.T) {
	items := []domain.CandidateItem{{Title: "A", Type: domain.KindMovie}}
	assert.Equal(t, items, Filter(items, nil))
	assert.Equal(t, items, Filter(items, NewIndex()))
}
