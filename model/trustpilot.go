package model

// BusinessUnitData is the aggregate rating shown on the dashboard widget.
// Zero values are the documented fallback when the upstream is unavailable.
type BusinessUnitData struct {
	Score        float64 `json:"score"`
	Stars        float64 `json:"stars"`
	ReviewsCount int     `json:"reviews_count"`
}

// Review is one entry of the capped recent-review list used by the carousel.
type Review struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	Stars        int    `json:"stars"`
	CreatedAt    string `json:"created_at"`
	ConsumerName string `json:"consumer_name"`
}
