// Package decorator prefixes post titles with a glyph matching the niche.
package decorator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"contentforge/internal/model"
)

// Category groups niche keywords with the glyphs used for them.
type Category struct {
	Name     string
	Keywords []string
	Glyphs   []string
}

// Categories is matched in order against the folded niche.
var Categories = []Category{
	{Name: "fashion", Keywords: []string{"moda", "fashion", "roupa", "vestuario", "boutique"}, Glyphs: []string{"👗", "👠", "🛍️"}},
	{Name: "fitness", Keywords: []string{"fitness", "ginasio", "gym", "treino", "desporto"}, Glyphs: []string{"💪", "🏋️", "🏃"}},
	{Name: "food", Keywords: []string{"food", "comida", "restaurante", "restaurant", "cafe", "pastelaria"}, Glyphs: []string{"🍽️", "🍰", "☕"}},
	{Name: "beauty", Keywords: []string{"beleza", "beauty", "maquilhagem", "cosmetica", "skincare"}, Glyphs: []string{"💄", "💅", "🌸"}},
}

// Campaign keywords are checked against title and niche when no category matched.
var campaignRules = []struct {
	keywords []string
	glyph    string
}{
	{keywords: []string{"desconto", "%", "promo", "oferta"}, glyph: "💸"},
	{keywords: []string{"outono", "fall"}, glyph: "🍂"},
	{keywords: []string{"luxo", "premium", "exclusivo"}, glyph: "💎"},
	{keywords: []string{"novo", "lancamento"}, glyph: "✨"},
}

var (
	genericGlyphs = []string{"🌟", "💫", "📣"}
	tiktokGlyphs  = []string{"🎬", "🔥", "🎵"}
	extraGlyphs   = []string{"✨", "🔥", "🍂", "💎", "💸", "🎁", "🏷️"}
)

// Decorator picks glyphs with its own random source so tests can seed it.
type Decorator struct {
	rng     *rand.Rand
	allowed map[rune]struct{}
}

// New returns a Decorator drawing from rng; nil seeds from the clock.
func New(rng *rand.Rand) *Decorator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Decorator{rng: rng, allowed: make(map[rune]struct{})}
	groups := [][]string{genericGlyphs, tiktokGlyphs, extraGlyphs}
	for _, c := range Categories {
		groups = append(groups, c.Glyphs)
	}
	for _, rule := range campaignRules {
		groups = append(groups, []string{rule.glyph})
	}
	for _, glyphs := range groups {
		for _, g := range glyphs {
			r, _ := utf8.DecodeRuneInString(g)
			d.allowed[r] = struct{}{}
		}
	}
	return d
}

// Decorate prepends a category glyph to title. Blank titles and titles that
// already start with a known glyph are returned unchanged.
func (d *Decorator) Decorate(title, niche string, platform model.Platform) string {
	if strings.TrimSpace(title) == "" || d.HasGlyph(title) {
		return title
	}
	return d.pick(title, niche, platform) + " " + strings.TrimSpace(title)
}

// HasGlyph reports whether title starts with one of the decorator's glyphs.
func (d *Decorator) HasGlyph(title string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(title))
	_, ok := d.allowed[r]
	return ok
}

// CategoryFor returns the category name for a niche, or "generic".
func CategoryFor(niche string) string {
	if c, ok := matchCategory(fold(niche)); ok {
		return c.Name
	}
	return "generic"
}

func (d *Decorator) pick(title, niche string, platform model.Platform) string {
	folded := fold(niche)
	if c, ok := matchCategory(folded); ok {
		return d.choose(c.Glyphs)
	}

	text := fold(title) + " " + folded
	for _, rule := range campaignRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.glyph
			}
		}
	}

	if platform == model.PlatformTikTok {
		return d.choose(tiktokGlyphs)
	}
	return d.choose(genericGlyphs)
}

func (d *Decorator) choose(glyphs []string) string {
	return glyphs[d.rng.Intn(len(glyphs))]
}

func matchCategory(folded string) (Category, bool) {
	for _, c := range Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(folded, kw) {
				return c, true
			}
		}
	}
	return Category{}, false
}

// fold lowercases s and strips diacritics so "Ginásio" matches "ginasio".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
