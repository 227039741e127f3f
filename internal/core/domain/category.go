package domain

// WeightedKeyword is one dictionary entry: the keyword with its match weight.
// Casing is preserved as administered; matching is case-insensitive.
type WeightedKeyword struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// Category is one topical bucket of the keyword dictionary.
type Category struct {
	Key         string                       `json:"category_key"`
	Names       map[string]string            `json:"names"`
	Icon        string                       `json:"icon,omitempty"`
	Color       string                       `json:"color,omitempty"`
	Description string                       `json:"description,omitempty"`
	Keywords    map[string][]WeightedKeyword `json:"keywords"`
}

// Name returns the display name for a language, falling back to English and
// then to the category key.
func (c Category) Name(lang string) string {
	if name := c.Names[lang]; name != "" {
		return name
	}

	if name := c.Names["en"]; name != "" {
		return name
	}

	return c.Key
}

// CategoryDictionary is the full admin-managed taxonomy, keyed by category key.
// It is read-mostly reference data, loaded once per matcher instance and
// refreshed on demand.
type CategoryDictionary map[string]Category
