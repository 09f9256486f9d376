package models

// Sentinel values substituted for fields that could not be extracted
const (
	NotAvailable    = "N/A"
	AnonymousName   = "Anonymous"
	ImageNotFound   = "URL_N/A"
	NotScrapedLabel = "N/A (Not scraped from main page)"
)

// Review is a single customer review extracted from a review list page
type Review struct {
	ID           string   `json:"id"`
	PageNumber   int      `json:"pageNumber"`
	ReviewerName string   `json:"reviewerName"`
	Rating       string   `json:"rating"`
	Text         string   `json:"text"`
	ImageURLs    []string `json:"imageUrls"`
}

// ProductInfo is captured on the product page and carried across the
// navigation into the review list
type ProductInfo struct {
	Title     string `json:"title"`
	Price     string `json:"price"`
	SourceURL string `json:"sourceUrl"`
}

// CrawlResult is the terminal output of one crawl
type CrawlResult struct {
	Product      ProductInfo `json:"product"`
	TotalReviews int         `json:"totalReviews"`
	Reviews      []Review    `json:"reviews"`
}

// NewCrawlResult builds a result and keeps TotalReviews in sync with Reviews
func NewCrawlResult(product ProductInfo, reviews []Review) *CrawlResult {
	if reviews == nil {
		reviews = []Review{}
	}
	return &CrawlResult{
		Product:      product,
		TotalReviews: len(reviews),
		Reviews:      reviews,
	}
}

// ActionScrape is the only action understood by the crawl service
const ActionScrape = "scrapeData"

// Command is a request delivered to the crawl service
type Command struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

// Status describes the outcome of a command
type Status string

const (
	StatusSuccess    Status = "success"
	StatusNavigating Status = "navigating"
	StatusError      Status = "error"
)

// Response is the reply to a Command. Data is set only on success.
type Response struct {
	Status  Status       `json:"status"`
	Data    *CrawlResult `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// PageMode selects the backend used to load pages
type PageMode string

const (
	ModeBrowser PageMode = "browser"
	ModeStatic  PageMode = "static"
)
