package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogConfig represents the structure of the catalog YAML file.
// The stage hierarchy is deep and rarely changes, so it lives in YAML rather than env vars.
type CatalogConfig struct {
	ContentTypes []ContentTypeConfig `yaml:"content_types" json:"content_types"`
	Stages       []StageConfig       `yaml:"stages" json:"stages"`
}

// ContentTypeConfig maps a browsing content-type id to a stored content type.
type ContentTypeConfig struct {
	ID          string `yaml:"id" json:"id"`     // e.g. "videos"
	Type        string `yaml:"type" json:"type"` // image, video, file, talent
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// StageConfig defines a school grade band.
type StageConfig struct {
	ID          string           `yaml:"id" json:"id"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Features    []string         `yaml:"features,omitempty" json:"features,omitempty"`
	Categories  []CategoryConfig `yaml:"categories" json:"categories"`
}

// CategoryConfig defines a topical grouping within a stage.
type CategoryConfig struct {
	ID            string              `yaml:"id" json:"id"`
	Title         string              `yaml:"title" json:"title"`
	Description   string              `yaml:"description,omitempty" json:"description,omitempty"`
	ImageURL      string              `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	Features      []string            `yaml:"features,omitempty" json:"features,omitempty"`
	Subcategories []SubcategoryConfig `yaml:"subcategories,omitempty" json:"subcategories,omitempty"`
}

// SubcategoryConfig defines a nested grouping within a category.
type SubcategoryConfig struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	ImageURL    string   `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	Features    []string `yaml:"features,omitempty" json:"features,omitempty"`
	// ContentTypes restricts the browsable types; empty means all catalog types.
	ContentTypes []string `yaml:"content_types,omitempty" json:"content_types,omitempty"`
}

// LoadCatalogConfig loads the catalog file at path.
// Returns nil without error if the file doesn't exist.
func LoadCatalogConfig(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Catalog file is optional
			return nil, nil
		}
		return nil, err
	}
	return ParseCatalogConfig(data)
}

// ParseCatalogConfig decodes catalog YAML.
func ParseCatalogConfig(data []byte) (*CatalogConfig, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetStageByID finds a stage by its id.
func (c *CatalogConfig) GetStageByID(id string) *StageConfig {
	if c == nil {
		return nil
	}
	for i := range c.Stages {
		if c.Stages[i].ID == id {
			return &c.Stages[i]
		}
	}
	return nil
}

// GetCategoryByID finds a category within the stage.
func (s *StageConfig) GetCategoryByID(id string) *CategoryConfig {
	if s == nil {
		return nil
	}
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return &s.Categories[i]
		}
	}
	return nil
}

// GetSubcategoryByID finds a subcategory within the category.
func (c *CategoryConfig) GetSubcategoryByID(id string) *SubcategoryConfig {
	if c == nil {
		return nil
	}
	for i := range c.Subcategories {
		if c.Subcategories[i].ID == id {
			return &c.Subcategories[i]
		}
	}
	return nil
}
