package domain

// ScrapeCheckpoint is the resumable state of a category scrape. It is
// written every checkpoint interval and once more when the category
// finishes, so an interrupted run can pick up at LastPage+1 with the
// products gathered so far.
type ScrapeCheckpoint struct {
	Category      string          `json:"category"`
	LastPage      int             `json:"last_page"`
	TotalProducts int             `json:"total_products"`
	Products      []ProductRecord `json:"products"`
	Timestamp     string          `json:"timestamp"` // ISO 8601
	Completed     bool            `json:"completed"`
}
