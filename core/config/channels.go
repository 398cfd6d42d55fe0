package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelsConfig maps monitored channel ids to their channel kind
// (main, production, client). Channels absent from the map are ignored.
type ChannelsConfig struct {
	ByID map[string]string
}

type channelsFile struct {
	Channels []struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"channels"`
}

var knownChannelKinds = map[string]bool{
	"main":       true,
	"production": true,
	"client":     true,
}

func (c ChannelsConfig) Empty() bool {
	return len(c.ByID) == 0
}

// KindOf returns the channel kind for a channel id.
func (c ChannelsConfig) KindOf(channelID string) (string, bool) {
	kind, ok := c.ByID[channelID]
	return kind, ok
}

// loadChannels reads CHANNELS_FILE when set, then overlays the
// per-kind channel id variables.
func loadChannels() (ChannelsConfig, error) {
	cfg := ChannelsConfig{ByID: make(map[string]string)}

	if path := getEnv("CHANNELS_FILE", ""); path != "" {
		fromFile, err := LoadChannelsFile(path)
		if err != nil {
			return ChannelsConfig{}, err
		}
		cfg = fromFile
	}

	for kind, key := range map[string]string{
		"main":       "MAIN_CHANNEL_ID",
		"production": "PRODUCTION_CHANNEL_ID",
		"client":     "CLIENT_CHANNEL_ID",
	} {
		if id := getEnv(key, ""); id != "" {
			cfg.ByID[id] = kind
		}
	}

	return cfg, nil
}

// LoadChannelsFile parses a YAML channel map of the form:
//
//	channels:
//	  - id: C012AB3CD
//	    kind: main
func LoadChannelsFile(path string) (ChannelsConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChannelsConfig{}, fmt.Errorf("reading channels file: %w", err)
	}
	return ParseChannels(raw)
}

func ParseChannels(raw []byte) (ChannelsConfig, error) {
	var file channelsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return ChannelsConfig{}, fmt.Errorf("parsing channels file: %w", err)
	}

	cfg := ChannelsConfig{ByID: make(map[string]string, len(file.Channels))}
	for i, ch := range file.Channels {
		if ch.ID == "" {
			return ChannelsConfig{}, fmt.Errorf("channels[%d]: id is required", i)
		}
		if !knownChannelKinds[ch.Kind] {
			return ChannelsConfig{}, fmt.Errorf("channels[%d]: unknown kind %q", i, ch.Kind)
		}
		cfg.ByID[ch.ID] = ch.Kind
	}
	return cfg, nil
}
