package seen

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadRatingsCSV builds an Index from an IMDb ratings export. A missing
// file is not an error — the run just proceeds without seen filtering.
func LoadRatingsCSV(path string) (*Index, error) {
	idx := NewIndex()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return idx, fmt.Errorf("open ratings csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return idx, fmt.Errorf("read ratings header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // tolerate ragged rows, keep what parses
		}
		addRow(idx, cols, rec)
	}
	return idx, nil
}

func addRow(idx *Index, cols map[string]int, rec []string) {
	get := func(names ...string) string {
		for _, n := range names {
			if i, ok := cols[n]; ok && i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	// ids: prefer the known columns, else sniff every cell for a tt id
	id := maybeTconst(get("const", "tconst", "imdb title id", "imdb_id", "id"))
	if id == "" {
		for _, cell := range rec {
			if id = maybeTconst(cell); id != "" {
				break
			}
		}
	}
	if id != "" {
		idx.AddID(id)
	}

	title := get("title", "original title", "originaltitle")
	if title == "" {
		return
	}
	year := 0
	if y := get("year", "startyear", "release year"); y != "" {
		year, _ = strconv.Atoi(y)
	}
	idx.AddTitle(kindFromTitleType(get("title type", "titletype", "type")), title, year)
}

func kindFromTitleType(tt string) string {
	switch strings.ToLower(strings.TrimSpace(tt)) {
	case "movie", "feature", "video", "tvmovie", "":
		return "movie"
	case "tv series", "tvseries", "tv miniseries", "tvminiseries", "tvepisode", "episode":
		return "tvSeries"
	default:
		return "movie"
	}
}
