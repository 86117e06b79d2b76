package reference

import (
	"context"
	"testing"

	"jobcrawler/internal/models"
)

type stubSource struct {
	districts  []models.District
	categories []models.Category
}

func (s stubSource) Districts(context.Context) ([]models.District, error)  { return s.districts, nil }
func (s stubSource) Categories(context.Context) ([]models.Category, error) { return s.categories, nil }

func TestLoad_FallsBackToSeed(t *testing.T) {
	cat, err := Load(context.Background(), stubSource{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.DefaultDistrictID != 1 {
		t.Errorf("default district = %d, want 1 (Kampala)", cat.DefaultDistrictID)
	}
	if got := cat.CategoryName(cat.DefaultCategoryID); got != "General" {
		t.Errorf("default category = %q, want General", got)
	}
	if len(cat.Categories) == 0 || cat.Categories[0].Name != "Information Technology" {
		t.Errorf("categories not loaded in declaration order: %+v", cat.Categories)
	}
}

func TestLoad_UsesSourceIDs(t *testing.T) {
	src := stubSource{
		districts:  []models.District{{ID: 40, Name: "kampala"}, {ID: 41, Name: "Gulu"}},
		categories: []models.Category{{ID: 7, Name: "General"}, {ID: 8, Name: "Information Technology"}},
	}
	cat, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.DefaultDistrictID != 40 || cat.DefaultCategoryID != 7 {
		t.Errorf("defaults = %d/%d, want 40/7", cat.DefaultDistrictID, cat.DefaultCategoryID)
	}
	if len(cat.Categories) != 2 {
		t.Fatalf("categories = %d, want 2 (unknown names skipped)", len(cat.Categories))
	}
	if cat.Categories[0].ID != 8 {
		t.Errorf("first rule id = %d, want 8", cat.Categories[0].ID)
	}
}

func TestLoad_MissingDefault(t *testing.T) {
	src := stubSource{
		districts:  []models.District{{ID: 1, Name: "Gulu"}},
		categories: []models.Category{{ID: 7, Name: "General"}},
	}
	if _, err := Load(context.Background(), src); err == nil {
		t.Fatal("expected error when default district is missing")
	}
}
