// Package reference exposes the district and category lookups the pipeline
// resolves extracted text against. The tables belong to the job board; this
// package only reads them.
package reference

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"jobcrawler/internal/core/normalize"
	"jobcrawler/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	DefaultDistrict string   `yaml:"default_district"`
	DefaultCategory string   `yaml:"default_category"`
	Districts       []string `yaml:"districts"`
	Categories      []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
		Synonyms []string `yaml:"synonyms"`
	} `yaml:"categories"`
}

// Source supplies the id-bearing reference rows.
type Source interface {
	Districts(ctx context.Context) ([]models.District, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Catalog is the resolved, read-only lookup used by extraction.
type Catalog struct {
	Districts         []models.District
	DefaultDistrictID int64
	Categories        []normalize.CategoryRule
	DefaultCategoryID int64
}

func parseCatalog() (catalogFile, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return f, fmt.Errorf("parse catalog.yaml: %w", err)
	}
	return f, nil
}

// Seed returns the embedded reference rows with ids assigned in declaration
// order, starting at 1.
func Seed() ([]models.District, []models.Category, error) {
	f, err := parseCatalog()
	if err != nil {
		return nil, nil, err
	}
	districts := make([]models.District, 0, len(f.Districts))
	for i, name := range f.Districts {
		districts = append(districts, models.District{ID: int64(i + 1), Name: name})
	}
	categories := make([]models.Category, 0, len(f.Categories))
	for i, c := range f.Categories {
		categories = append(categories, models.Category{ID: int64(i + 1), Name: c.Name})
	}
	return districts, categories, nil
}

// Load resolves the embedded keyword sets against the ids held by src. When
// src has no rows of a kind, the seed ids are used instead. Categories that
// src does not know are skipped.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	f, err := parseCatalog()
	if err != nil {
		return nil, err
	}
	seedDistricts, seedCategories, err := Seed()
	if err != nil {
		return nil, err
	}

	districts, err := src.Districts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load districts: %w", err)
	}
	if len(districts) == 0 {
		districts = seedDistricts
	}
	categories, err := src.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		categories = seedCategories
	}

	cat := &Catalog{Districts: districts}
	for _, d := range districts {
		if strings.EqualFold(d.Name, f.DefaultDistrict) {
			cat.DefaultDistrictID = d.ID
		}
	}
	if cat.DefaultDistrictID == 0 {
		return nil, fmt.Errorf("default district %q not found", f.DefaultDistrict)
	}

	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	for _, c := range f.Categories {
		id, ok := ids[strings.ToLower(c.Name)]
		if !ok {
			continue
		}
		cat.Categories = append(cat.Categories, normalize.CategoryRule{
			ID:       id,
			Name:     c.Name,
			Keywords: c.Keywords,
			Synonyms: c.Synonyms,
		})
		if strings.EqualFold(c.Name, f.DefaultCategory) {
			cat.DefaultCategoryID = id
		}
	}
	if cat.DefaultCategoryID == 0 {
		return nil, fmt.Errorf("default category %q not found", f.DefaultCategory)
	}
	return cat, nil
}

// CategoryName returns the name for id, or "" when unknown.
func (c *Catalog) CategoryName(id int64) string {
	for _, r := range c.Categories {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}
