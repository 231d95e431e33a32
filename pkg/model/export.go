package model

import (
	"gopkg.in/yaml.v3"

	"github.com/entwire/entwire/pkg/schema"
)

const exportVersion = "1"

type exportFile struct {
	Version string     `yaml:"version"`
	Models  []ModelSet `yaml:"models"`
}

// EncodeYAML renders the model sets of a schema as a YAML document in entity
// load order. Because generation is deterministic, exporting the same sources
// twice yields byte-identical output, which makes exports diffable.
func EncodeYAML(set *schema.Set, models map[string]ModelSet) ([]byte, error) {
	ef := exportFile{Version: exportVersion}
	for _, name := range set.Names {
		ef.Models = append(ef.Models, models[name])
	}
	return yaml.Marshal(ef)
}

// DecodeYAML reads a previously exported model description.
func DecodeYAML(b []byte) ([]ModelSet, error) {
	var ef exportFile
	if err := yaml.Unmarshal(b, &ef); err != nil {
		return nil, err
	}
	return ef.Models, nil
}
