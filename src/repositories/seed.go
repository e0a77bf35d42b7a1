package repositories

import (
	"context"
	"fmt"
	"os"

	"github.com/khabaroff/license-gate/src/models"
	"gopkg.in/yaml.v3"
)

// seedClient mirrors models.ClientRecord with optional flags so absent
// fields fall back to registry defaults instead of Go zero values
type seedClient struct {
	APIKey       string `yaml:"api_key"`
	Name         string `yaml:"name"`
	Active       *bool  `yaml:"active"`
	Blocked      bool   `yaml:"blocked"`
	ExpiresAt    *int64 `yaml:"expires_at"`
	MonthlyLimit int64  `yaml:"monthly_limit"`
	Used         int64  `yaml:"used"`
}

type seedFile struct {
	Clients []seedClient `yaml:"clients"`
}

// ParseSeed decodes a client list. JSON input is accepted as well.
func ParseSeed(data []byte) ([]*models.ClientRecord, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Clients))
	records := make([]*models.ClientRecord, 0, len(file.Clients))
	for i, sc := range file.Clients {
		record := models.NewClientRecord(sc.APIKey, sc.Name)
		if sc.Active != nil {
			record.Active = *sc.Active
		}
		record.Blocked = sc.Blocked
		record.ExpiresAt = sc.ExpiresAt
		record.MonthlyLimit = sc.MonthlyLimit
		record.Used = sc.Used

		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidRecord, i, err)
		}
		if _, dup := seen[record.APIKey]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, record.APIKey)
		}
		seen[record.APIKey] = struct{}{}
		records = append(records, record)
	}
	return records, nil
}

// LoadSeedFile reads path and upserts every record into repo.
// Usage counters of keys already in the store survive a reload.
// It returns the number of records written.
func LoadSeedFile(ctx context.Context, repo ClientRepository, path string) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	records, err := ParseSeed(data)
	if err != nil {
		return 0, err
	}
	for _, record := range records {
		if err := repo.Upsert(ctx, record); err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", record.APIKey, err)
		}
	}
	return len(records), nil
}
