package service

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"water_tank/internal/models"
)

// seedFile is the layout of the optional tanks seed file.
type seedFile struct {
	Tanks []models.Tank `yaml:"tanks"`
}

// LoadSeedFile reads tank definitions from a YAML file.
func LoadSeedFile(path string) ([]models.Tank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Tanks, nil
}

// Seed saves every tank that is not stored yet. Existing tanks are left alone.
// It returns how many tanks were created.
func Seed(ctx context.Context, tanks Tanks, seed []models.Tank) (int, error) {
	created := 0
	for _, t := range seed {
		if t.ID != "" {
			if _, err := tanks.Get(ctx, t.ID); err == nil {
				continue
			}
		}
		if _, err := tanks.Save(ctx, t); err != nil {
			return created, fmt.Errorf("seed tank %q: %w", t.Label, err)
		}
		created++
	}
	return created, nil
}
