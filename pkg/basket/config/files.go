package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Dict is a synonym dictionary folding item variants onto one label.
type Dict struct {
	Entries []DictEntry
}

// DictEntry maps variants onto a canonical item.
type DictEntry struct {
	Canonical string
	Variants  []string
}

// Synonyms flattens the dictionary into a variant → canonical map.
func (d *Dict) Synonyms() map[string]string {
	out := make(map[string]string)
	for _, e := range d.Entries {
		for _, v := range e.Variants {
			out[v] = e.Canonical
		}
	}
	return out
}

// LoadDict loads a synonym dictionary.
// Format: canonical|variant1|variant2, one entry per line, # comments.
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{Entries: []DictEntry{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		entry := DictEntry{Canonical: strings.TrimSpace(parts[0])}
		for _, v := range parts[1:] {
			if v = strings.TrimSpace(v); v != "" {
				entry.Variants = append(entry.Variants, v)
			}
		}
		if entry.Canonical == "" || len(entry.Variants) == 0 {
			continue
		}
		dict.Entries = append(dict.Entries, entry)
	}

	return dict, nil
}
