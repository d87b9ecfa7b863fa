package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape of a forbidden-items seed file:
//
//	forbidden:
//	  - kind: message
//	    slack_id: "1690000000.000100"
//	    channel_id: C123ABC
type seedFile struct {
	Forbidden []seedItem `yaml:"forbidden"`
}

type seedItem struct {
	Kind      string `yaml:"kind"`
	SlackID   string `yaml:"slack_id"`
	ChannelID string `yaml:"channel_id"`
}

// SeedForbidden pre-marks items from a YAML file as forbidden, so they can
// never be tweeted regardless of reactions. Returns the number of items
// written. Existing records keep their other fields (upsert-merge).
func SeedForbidden(ctx context.Context, s Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading forbidden seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("parsing forbidden seed file %s: %w", path, err)
	}

	for i, item := range seed.Forbidden {
		kind := ItemKind(item.Kind)
		if kind == "" {
			kind = KindMessage
		}
		patch := ItemPatch{
			Kind:      kind,
			SlackID:   item.SlackID,
			Forbidden: BoolPtr(true),
		}
		if item.ChannelID != "" {
			patch.ChannelID = StringPtr(item.ChannelID)
		}
		if err := s.Save(ctx, patch); err != nil {
			return i, fmt.Errorf("seeding forbidden item %s: %w", patch.Key(), err)
		}
	}
	return len(seed.Forbidden), nil
}
