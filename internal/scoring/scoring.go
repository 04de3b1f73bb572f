// Package scoring rates captions with a deterministic heuristic.
//
// The jitter is drawn from a generator seeded with the caption's hash, so the
// same caption always gets the same metrics while different captions spread out.
package scoring

import (
	"math"
	"math/rand"
	"strings"

	"github.com/cespare/xxhash/v2"

	"contentforge/internal/model"
)

const (
	MinScore = 6.0
	MaxScore = 9.5

	baseScore       = 7.0
	wordsFloor      = 40.0
	wordsSpan       = 40.0
	maxLengthBonus  = 2.0
	perHashtag      = 0.03
	maxHashtagBonus = 0.6
	jitterAmplitude = 0.3
)

// Seed offsets keep the three metrics independent for one caption.
const (
	offsetScore uint64 = iota
	offsetEngagement
	offsetConversion
)

// Score rates a caption and its hashtags. Every metric lies in [MinScore, MaxScore]
// with one decimal.
func Score(caption string, hashtags []string) model.Metrics {
	base := Base(caption, hashtags)
	seed := xxhash.Sum64String(caption)

	return model.Metrics{
		Score:      finish(base + jitter(seed, offsetScore)),
		Engagement: finish(base + jitter(seed, offsetEngagement)),
		Conversion: finish(base + jitter(seed, offsetConversion)),
	}
}

// Base is the score before jitter: word count reward plus hashtag bonus.
func Base(caption string, hashtags []string) float64 {
	words := float64(len(strings.Fields(caption)))
	lengthBonus := math.Min(maxLengthBonus, math.Max(0, (words-wordsFloor)/wordsSpan))
	tagBonus := math.Min(maxHashtagBonus, perHashtag*float64(len(hashtags)))
	return baseScore + lengthBonus + tagBonus
}

func jitter(seed, offset uint64) float64 {
	rng := rand.New(rand.NewSource(int64(seed + offset)))
	return (rng.Float64()*2 - 1) * jitterAmplitude
}

func finish(v float64) float64 {
	return Round1(math.Min(MaxScore, math.Max(MinScore, v)))
}

// Round1 rounds half away from zero to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
