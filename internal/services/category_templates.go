package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

//go:embed category_templates.yaml
var categoryTemplatesYAML []byte

// TemplateNode is one entry of the system category tree. Children inherit
// their parent's type.
type TemplateNode struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Icon        string         `yaml:"icon"`
	Color       string         `yaml:"color"`
	Children    []TemplateNode `yaml:"children"`
}

type templateDocument struct {
	Templates []TemplateNode `yaml:"templates"`
}

// LoadTemplateTree parses the embedded system category tree.
func LoadTemplateTree() ([]TemplateNode, error) {
	return parseTemplateTree(categoryTemplatesYAML)
}

func parseTemplateTree(data []byte) ([]TemplateNode, error) {
	var doc templateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing category templates: %w", err)
	}
	for _, node := range doc.Templates {
		if _, ok := models.ParseCategoryType(node.Type); !ok {
			return nil, fmt.Errorf("template %q has invalid type %q", node.Name, node.Type)
		}
	}
	return doc.Templates, nil
}

// SeedSystemTemplates inserts the system category templates when none exist
// and returns how many rows were created.
func SeedSystemTemplates(db *gorm.DB) (int, error) {
	tree, err := LoadTemplateTree()
	if err != nil {
		return 0, err
	}
	return seedTemplates(db, tree)
}

func seedTemplates(db *gorm.DB, tree []TemplateNode) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Category{}).Where("owner_id IS NULL").Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var insert func(node TemplateNode, categoryType models.CategoryType, parentID *string) error
		insert = func(node TemplateNode, categoryType models.CategoryType, parentID *string) error {
			if node.Type != "" {
				categoryType, _ = models.ParseCategoryType(node.Type)
			}
			row := models.NewCategoryRow(models.SystemTemplate{CategoryFields: models.CategoryFields{
				Name:        node.Name,
				Type:        categoryType,
				ParentID:    parentID,
				Description: node.Description,
				Icon:        node.Icon,
				Color:       node.Color,
			}})
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("creating template %q: %w", node.Name, err)
			}
			created++
			for _, child := range node.Children {
				if err := insert(child, categoryType, &row.ID); err != nil {
					return err
				}
			}
			return nil
		}

		for _, node := range tree {
			if err := insert(node, "", nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		logger.Get().Infow("seeded system category templates", "count", created)
	}
	return created, nil
}
