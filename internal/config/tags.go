package config

import (
	"fmt"
	"strings"
)

// ParseTags parses a workload tag string into single-key tag maps.
// Accepted forms: "Environment=prod,Application=web",
// "Environment=prod Application=web", "Environment:prod,Application:web".
// An empty string parses to no tags.
func ParseTags(tagString string) ([]map[string]string, error) {
	if strings.TrimSpace(tagString) == "" {
		return nil, nil
	}

	var pairs []string
	if strings.Contains(tagString, ",") {
		pairs = strings.Split(tagString, ",")
	} else {
		pairs = strings.Fields(tagString)
	}

	var tags []map[string]string
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		var key, value string
		switch {
		case strings.Contains(pair, "="):
			key, value, _ = strings.Cut(pair, "=")
		case strings.Contains(pair, ":"):
			key, value, _ = strings.Cut(pair, ":")
		default:
			return nil, fmt.Errorf("invalid tag format: %q: expected 'key=value' or 'key:value'", pair)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return nil, fmt.Errorf("invalid tag format: %q: key and value cannot be empty", pair)
		}

		tags = append(tags, map[string]string{key: value})
	}

	return tags, nil
}

// SetWorkloadTagsFromString parses and stores the workload tag filter.
func (c *Config) SetWorkloadTagsFromString(tagString string) error {
	tags, err := ParseTags(tagString)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = tags
	c.tagsSet = true
	c.logger.Info("workload tags set", "tags", tags)
	return nil
}

// WorkloadTags returns the configured tag filter. No configured tags means
// no filtering: all resources are considered.
func (c *Config) WorkloadTags() []map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tagsSet {
		c.logger.Info("no workload tags configured, considering all resources")
		c.tags = []map[string]string{}
		c.tagsSet = true
	}
	return c.tags
}

// ClearWorkloadTags removes the tag filter. Test hook only.
func (c *Config) ClearWorkloadTags() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = nil
	c.tagsSet = false
}
