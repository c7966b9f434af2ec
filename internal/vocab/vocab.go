// Package vocab loads field vocabularies from YAML files.
package vocab

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mapper-cli/internal/model"
)

// LoadFile reads a vocabulary definition from a YAML file. The file
// lists the schema fields available on each side:
//
//	source_fields:
//	  - customer_name
//	  - email_address
//	target_fields:
//	  - full_name
//	  - email
func LoadFile(path string) (model.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Vocabulary{}, eris.Wrapf(err, "vocab: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a vocabulary from YAML bytes.
func Parse(data []byte) (model.Vocabulary, error) {
	var v model.Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return model.Vocabulary{}, eris.Wrap(err, "vocab: parse")
	}
	return v, nil
}
