package ir

// Document is the typeset result of one build.
//
// A Document is transient: it is produced by a layout pass, stamped with a
// date by the world that built it, and handed to an exporter. Nothing caches
// it across builds.
type Document struct {
	Title string `json:"title"`
	Date  string `json:"date"` // YYYY-MM-DD, empty if unset
	Pages []Page `json:"pages"`
}

// Page is one fixed-height page of wrapped text lines.
type Page struct {
	Number int      `json:"number"` // 1-based
	Lines  []string `json:"lines"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// LineCount returns the total number of lines across all pages.
func (d *Document) LineCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// ToCanonicalMap converts the document to the generic form accepted by
// MarshalCanonical.
func (d *Document) ToCanonicalMap() map[string]any {
	pages := make([]any, len(d.Pages))
	for i, p := range d.Pages {
		lines := make([]any, len(p.Lines))
		for j, l := range p.Lines {
			lines[j] = l
		}
		pages[i] = map[string]any{
			"number": p.Number,
			"lines":  lines,
		}
	}

	return map[string]any{
		"format": FormatName,
		"title":  d.Title,
		"date":   d.Date,
		"pages":  pages,
	}
}
