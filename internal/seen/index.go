// Package seen builds the per-run index of titles the user has already
// consumed, from the local ratings export plus optional public signals.
package seen

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tconstRe = regexp.MustCompile(`(?i)(tt\d{6,9})`)

// Index stores exact IMDb ids plus tolerant kind:title:year keys so a
// candidate matches even when ids are missing or years are off by one.
type Index struct {
	ids  map[string]bool
	keys map[string]bool
}

func NewIndex() *Index {
	return &Index{ids: map[string]bool{}, keys: map[string]bool{}}
}

// Len reports total unique signals (ids + title keys).
func (x *Index) Len() int { return len(x.ids) + len(x.keys) }

func (x *Index) AddID(imdbID string) {
	id := strings.ToLower(strings.TrimSpace(imdbID))
	if strings.HasPrefix(id, "tt") {
		x.ids[id] = true
	}
}

func (x *Index) AddTitle(kind, title string, year int) {
	nt := normTitle(title)
	if kind == "" || nt == "" {
		return
	}
	x.keys[titleKey(kind, nt, year)] = true
}

func (x *Index) HasID(imdbID string) bool {
	if imdbID == "" {
		return false
	}
	return x.ids[strings.ToLower(imdbID)]
}

// HasTitle matches exact year, the * wildcard, and year±1 (release years
// drift between IMDb and the catalog).
func (x *Index) HasTitle(kind, title string, year int) bool {
	nt := normTitle(title)
	if kind == "" || nt == "" {
		return false
	}
	if x.keys[titleKey(kind, nt, year)] || x.keys[titleKey(kind, nt, 0)] {
		return true
	}
	if year != 0 {
		return x.keys[titleKey(kind, nt, year-1)] || x.keys[titleKey(kind, nt, year+1)]
	}
	return false
}

func titleKey(kind, normedTitle string, year int) string {
	y := "*"
	if year != 0 {
		y = strconv.Itoa(year)
	}
	return kind + ":" + normedTitle + ":" + y
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleReplacer = strings.NewReplacer(
	"’", "'", "&", " and ", ":", " ", "-", " ", "/", " ",
	".", " ", ",", " ", "!", " ", "?", " ",
)

// normTitle lowercases, strips accents and punctuation, and drops a
// leading article so "The Matrix" and "Matrix" collide.
func normTitle(t string) string {
	folded, _, err := transform.String(asciiFold, t)
	if err != nil {
		folded = t
	}
	var b strings.Builder
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	t = strings.ToLower(b.String())
	t = titleReplacer.Replace(t)
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(t, art) {
			t = t[len(art):]
			break
		}
	}
	return strings.Join(strings.Fields(t), " ")
}

// maybeTconst pulls a tt id out of an arbitrary cell (some exports only
// carry it inside a URL column).
func maybeTconst(cell string) string {
	m := tconstRe.FindString(cell)
	return strings.ToLower(m)
}
