package plans

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads plan definitions from a YAML document of the form:
//
//	plans:
//	  - tier: premium
//	    name: Premium
//	    quotas:
//	      resume_tailoring: 40
//	      cover_letter: 20
//	    price: {amount: 900, currency: USD}
//	    price_ids:
//	      monthly: pri_premium_monthly
//	      annual: pri_premium_annual
type yamlSource struct {
	path string
}

type yamlDocument struct {
	Plans []Plan `yaml:"plans"`
}

// NewYAMLSource returns a Source that reads plans from the YAML file at path.
// The file is read on every Load so a catalog rebuild picks up edits.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(_ context.Context) ([]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes plan definitions from raw YAML bytes.
func ParseYAML(raw []byte) ([]Plan, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, errors.New("no plans defined"))
	}
	return doc.Plans, nil
}
