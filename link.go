package deepcrawl

// LinkPriority represents crawl priority (higher = more important).
type LinkPriority int

// Link priority levels for crawl ordering.
const (
	PriorityIgnore     LinkPriority = 0
	PriorityFooter     LinkPriority = 20
	PriorityContent    LinkPriority = 50
	PriorityNavigation LinkPriority = 100
	PriorityTOC        LinkPriority = 110
)

// DiscoveredLink represents a URL queued for crawling.
type DiscoveredLink struct {
	URL      string
	Depth    int
	Priority LinkPriority
	Text     string
	Source   string // "nav", "toc", "content", "footer"
}

// LinkExtractor extracts same-site links from rendered HTML.
type LinkExtractor interface {
	// ExtractLinks parses HTML and returns discovered links with priority.
	// The baseURL is used to resolve relative URLs; links pointing at a
	// different host are not returned.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)
}
