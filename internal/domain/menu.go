package domain

// MenuEntry is one navigation node. Subcategory holds the parent node's title
// and is empty at the top level.
type MenuEntry struct {
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
}

// VisitKey identifies a crawl unit. The same URL reached through a different
// navigation context is a different unit.
type VisitKey struct {
	URL         string
	Category    string
	Subcategory string
	Title       string
}

func (e MenuEntry) Key() VisitKey {
	return VisitKey{
		URL:         e.URL,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Title:       e.Title,
	}
}
