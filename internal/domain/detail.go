package domain

type DetailRecord struct {
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Title       string `json:"title" yaml:"title"`
	Tab         string `json:"tab" yaml:"tab"`
	URL         string `json:"url" yaml:"url"`
	Description *Map   `json:"description" yaml:"description"`
	Contact     *Map   `json:"contact" yaml:"contact"`
}

// NewDetailRecord starts an empty record for a menu entry.
func NewDetailRecord(entry MenuEntry) DetailRecord {
	return DetailRecord{
		Category:    entry.Category,
		Subcategory: entry.Subcategory,
		Title:       entry.Title,
		URL:         entry.URL,
		Description: NewMap(),
		Contact:     NewMap(),
	}
}

func (r DetailRecord) Key() VisitKey {
	return VisitKey{
		URL:         r.URL,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Title:       r.Title,
	}
}
