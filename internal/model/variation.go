package model

// Variation is one candidate post returned by the content generation provider.
type Variation struct {
	Title    string   `json:"title"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// Metrics holds the heuristic quality scores of a caption, each in [0, 10].
type Metrics struct {
	Score      float64
	Engagement float64
	Conversion float64
}

// ScoredVariation is a Variation after decoration and scoring.
type ScoredVariation struct {
	Variation
	DecoratedTitle string
	Metrics        Metrics
	Recommended    bool
}
