package config

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Defaults match the original engine's behavior when nothing is set.
const (
	DefaultRegion         = "US"
	DefaultDiscoverPages  = 3
	DefaultRatingsCSV     = "data/ratings.csv"
	DefaultPublicMaxPages = 10
)

// DefaultOriginalLangs is the language filter applied when ORIGINAL_LANGS
// is absent or unparseable.
var DefaultOriginalLangs = []string{"en"}

// Options is the resolved per-run configuration, snapshotted into
// options.sanity.json so a run directory is self-describing.
type Options struct {
	Region         string   `json:"region"`
	OriginalLangs  []string `json:"original_langs"`
	SubsInclude    []string `json:"subs_include"`
	DiscoverPages  int      `json:"discover_pages"`
	RatingsCSVPath string   `json:"ratings_csv_path"`
	IMDBUserID     string   `json:"imdb_user_id,omitempty"`
	PublicMaxPages int      `json:"public_max_pages"`
}

// FromEnv builds Options from the process environment. Every key is
// optional; malformed values fall back to defaults rather than erroring.
func FromEnv() Options {
	k := koanf.New(".")
	// Pull the whole environment in, lowercased, and read the known keys.
	_ = k.Load(env.Provider("", ".", strings.ToLower), nil)
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) Options {
	region := strings.TrimSpace(k.String("region"))
	if region == "" {
		region = DefaultRegion
	}

	langs := ParseList(k.String("original_langs"), DefaultOriginalLangs)
	subs := ParseList(k.String("subs_include"), nil)

	ratings := strings.TrimSpace(k.String("imdb_ratings_csv_path"))
	if ratings == "" {
		ratings = DefaultRatingsCSV
	}

	return Options{
		Region:         region,
		OriginalLangs:  langs,
		SubsInclude:    subs,
		DiscoverPages:  ParseInt(k.String("discover_pages"), DefaultDiscoverPages),
		RatingsCSVPath: ratings,
		IMDBUserID:     strings.TrimSpace(k.String("imdb_user_id")),
		PublicMaxPages: ParseInt(k.String("imdb_public_max_pages"), DefaultPublicMaxPages),
	}
}

// ParseList accepts both forms operators actually use:
//
//	ORIGINAL_LANGS='["en","fr"]'
//	ORIGINAL_LANGS=en,fr
//
// A string that looks like JSON but fails to parse yields def, as does an
// empty result after trimming.
func ParseList(s string, def []string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if strings.HasPrefix(s, "[") {
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return def
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			str, ok := v.(string)
			if !ok {
				continue
			}
			if t := strings.TrimSpace(str); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return def
		}
		return out
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// ParseInt is the tolerant integer reader used for all numeric knobs.
func ParseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
