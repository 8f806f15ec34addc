package domain

// Recipe represents a single recipe from the remote catalog.
// Optional references are nil when the server omits them or sends null.
type Recipe struct {
	Cuisine       string  `json:"cuisine"`
	Name          string  `json:"name"`
	PhotoURLLarge *string `json:"photo_url_large,omitempty"`
	PhotoURLSmall *string `json:"photo_url_small,omitempty"`
	SourceURL     *string `json:"source_url,omitempty"`
	UUID          string  `json:"uuid"`
	YouTubeURL    *string `json:"youtube_url,omitempty"`
}

// ID returns the stable list identity of the recipe.
func (r Recipe) ID() string {
	return r.UUID
}

// Thumbnail returns the best image reference for a list row: the small photo,
// falling back to the large one.
func (r Recipe) Thumbnail() (string, bool) {
	if r.PhotoURLSmall != nil && *r.PhotoURLSmall != "" {
		return *r.PhotoURLSmall, true
	}
	if r.PhotoURLLarge != nil && *r.PhotoURLLarge != "" {
		return *r.PhotoURLLarge, true
	}
	return "", false
}

// Catalog is the ordered list of recipes exactly as delivered by the server.
type Catalog []Recipe
