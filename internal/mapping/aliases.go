package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/fra-claims/constants"
)

type aliasFile struct {
	States    map[string]string `yaml:"states"`
	Districts map[string]string `yaml:"districts"`
}

// LoadAliases returns the built-in alias table extended with the entries in
// the YAML file at path. An empty path yields the built-in table.
func LoadAliases(path string) (*constants.AliasTable, error) {
	t := constants.DefaultAliases()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	for alias, canon := range f.States {
		t.AddState(alias, canon)
		t.AddState(canon, canon)
	}
	for alias, canon := range f.Districts {
		t.AddDistrict(alias, canon)
		t.AddDistrict(canon, canon)
	}
	return t, nil
}
