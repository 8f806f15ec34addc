package catalog

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/recipebox/backend/internal/domain"
)

// envelope is the top-level catalog document. Recipes is a pointer so a
// missing or null field can be told apart from an empty list.
type envelope struct {
	Recipes *[]recipeRecord `json:"recipes"`
}

// recipeRecord mirrors one recipe object on the wire. Required fields are
// pointers so absence and null are detectable.
type recipeRecord struct {
	Cuisine       *string `json:"cuisine"`
	Name          *string `json:"name"`
	PhotoURLLarge *string `json:"photo_url_large"`
	PhotoURLSmall *string `json:"photo_url_small"`
	SourceURL     *string `json:"source_url"`
	UUID          *string `json:"uuid"`
	YouTubeURL    *string `json:"youtube_url"`
}

// DecodeCatalog parses a catalog response body. Any shape mismatch is reported
// as domain.ErrDecodingFailed; an empty recipe list is a valid catalog.
func DecodeCatalog(body []byte) (domain.Catalog, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodingFailed, err)
	}
	if env.Recipes == nil {
		return nil, fmt.Errorf("%w: missing recipes field", domain.ErrDecodingFailed)
	}

	return mapToCatalog(*env.Recipes)
}

// mapToCatalog converts wire records to domain recipes, preserving order
func mapToCatalog(records []recipeRecord) (domain.Catalog, error) {
	catalog := make(domain.Catalog, 0, len(records))
	seen := make(map[string]int, len(records))

	for i, rec := range records {
		recipe, err := mapToRecipe(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: recipe %d: %v", domain.ErrDecodingFailed, i, err)
		}
		if first, dup := seen[recipe.UUID]; dup {
			return nil, fmt.Errorf("%w: recipe %d: uuid %q duplicates recipe %d", domain.ErrDecodingFailed, i, recipe.UUID, first)
		}
		seen[recipe.UUID] = i
		catalog = append(catalog, recipe)
	}

	return catalog, nil
}

// mapToRecipe validates required fields and copies optional ones as-is
func mapToRecipe(rec recipeRecord) (domain.Recipe, error) {
	switch {
	case rec.Cuisine == nil:
		return domain.Recipe{}, fmt.Errorf("missing cuisine")
	case rec.Name == nil:
		return domain.Recipe{}, fmt.Errorf("missing name")
	case rec.UUID == nil:
		return domain.Recipe{}, fmt.Errorf("missing uuid")
	case *rec.UUID == "":
		return domain.Recipe{}, fmt.Errorf("empty uuid")
	}

	return domain.Recipe{
		Cuisine:       *rec.Cuisine,
		Name:          *rec.Name,
		PhotoURLLarge: rec.PhotoURLLarge,
		PhotoURLSmall: rec.PhotoURLSmall,
		SourceURL:     rec.SourceURL,
		UUID:          *rec.UUID,
		YouTubeURL:    rec.YouTubeURL,
	}, nil
}
