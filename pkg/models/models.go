package models

// Product is a single search result card scraped from a listing page
type Product struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

// DriverKind selects the browser backend used for a search
type DriverKind string

const (
	DriverAuto     DriverKind = "auto"
	DriverChromedp DriverKind = "chromedp"
	DriverRod      DriverKind = "rod"
	DriverStatic   DriverKind = "static"
)

// SearchResult is the outcome of one query in a batch run
type SearchResult struct {
	Index    int       `json:"-"`
	Query    string    `json:"query"`
	Products []Product `json:"products"`
	Error    error     `json:"-"`
}
