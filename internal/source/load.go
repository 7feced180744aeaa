package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/finops-intake/backend/internal/models"
)

type Paths struct {
	Emails      string
	Suggestions string
	Directory   string
}

// Load reads the three fixture files. The directory may be JSON or YAML.
func Load(p Paths, v *validator.Validate) (*Catalog, error) {
	var emails []models.Email
	if err := readJSON(p.Emails, &emails); err != nil {
		return nil, err
	}
	for i, e := range emails {
		if strings.TrimSpace(e.EmailID) == "" {
			return nil, fmt.Errorf("%s: email %d has no email_id", p.Emails, i)
		}
	}

	suggestions := map[string]models.SuggestionRecord{}
	if p.Suggestions != "" {
		if err := readJSON(p.Suggestions, &suggestions); err != nil {
			return nil, err
		}
	}

	dir, err := LoadDirectory(p.Directory, v)
	if err != nil {
		return nil, err
	}
	return NewCatalog(emails, suggestions, dir), nil
}

func LoadDirectory(path string, v *validator.Validate) (models.Directory, error) {
	var dir models.Directory
	data, err := os.ReadFile(path)
	if err != nil {
		return dir, fmt.Errorf("read directory: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &dir)
	default:
		err = json.Unmarshal(data, &dir)
	}
	if err != nil {
		return dir, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := v.Struct(dir); err != nil {
		return dir, fmt.Errorf("invalid directory %s: %w", path, err)
	}
	return dir, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
