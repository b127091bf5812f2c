package services

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
)

type registryFile struct {
	Bosses []registryFileEntry `yaml:"bosses"`
}

type registryFileEntry struct {
	models.BossRegistryEntry `yaml:",inline"`
	Enabled                  *bool `yaml:"enabled"`
}

// ParseRegistry reads a YAML boss list of the form `bosses: [{boss_code: ...}]`.
// Entries without an enabled key are enabled.
func ParseRegistry(data []byte) ([]models.BossRegistryEntry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing registry file: %w", err)
	}

	entries := make([]models.BossRegistryEntry, 0, len(file.Bosses))
	seen := make(map[string]bool, len(file.Bosses))
	for i, fileEntry := range file.Bosses {
		entry := fileEntry.BossRegistryEntry
		entry.Enabled = fileEntry.Enabled == nil || *fileEntry.Enabled
		if strings.TrimSpace(entry.BossCode) == "" {
			return nil, fmt.Errorf("registry entry %d: boss_code is required", i)
		}
		if strings.ContainsAny(entry.BossCode+entry.DifficultyCode, ",:") {
			return nil, fmt.Errorf("registry entry %s: codes must not contain ',' or ':'", entry.BossCode)
		}
		if entry.MaxPartySize < 1 {
			return nil, fmt.Errorf("registry entry %s: max_party_size must be at least 1", entry.BossCode)
		}
		if entry.CrystalValue < 0 {
			return nil, fmt.Errorf("registry entry %s: crystal_value must not be negative", entry.BossCode)
		}
		key := entry.BossCode + "-" + entry.DifficultyCode
		if seen[key] {
			return nil, fmt.Errorf("registry entry %s: duplicate boss and difficulty", key)
		}
		seen[key] = true
		entries = append(entries, entry)
	}
	return entries, nil
}

type RegistryService struct {
	registry repository.BossRegistryRepository
}

func NewRegistryService(registry repository.BossRegistryRepository) *RegistryService {
	return &RegistryService{registry: registry}
}

func (service *RegistryService) List(ctx context.Context) ([]models.BossRegistryEntry, error) {
	entries, err := service.registry.FindAll(ctx)
	if err != nil {
		return nil, storeError("loading boss registry", err)
	}
	return entries, nil
}

// Import upserts the entries of a registry file and returns how many were written.
func (service *RegistryService) Import(ctx context.Context, data []byte) (int, error) {
	entries, err := ParseRegistry(data)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := service.registry.Upsert(ctx, entries); err != nil {
		return 0, storeError("importing boss registry", err)
	}
	return len(entries), nil
}
