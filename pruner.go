package deepcrawl

// Pruner removes unwanted elements from raw HTML before content extraction.
// Typical removals are scripts, ads, cookie banners, and user-excluded
// selectors.
type Pruner interface {
	Prune(html string) (string, error)
}
