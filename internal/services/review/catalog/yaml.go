package catalog

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument mirrors the on-disk catalog layout:
//
//	standards:
//	  - code: STD1
//	    specifications:
//	      - code: "1.1"
//	        text: ...
type yamlDocument struct {
	Standards []struct {
		Code           string `yaml:"code"`
		Specifications []struct {
			Code string `yaml:"code"`
			Text string `yaml:"text"`
		} `yaml:"specifications"`
	} `yaml:"standards"`
}

// LoadYAML parses a catalog document from r.
func LoadYAML(r io.Reader) (Catalog, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog yaml: %w", err)
	}

	var items []Item
	for _, standard := range doc.Standards {
		standardCode := strings.TrimSpace(standard.Code)
		for _, spec := range standard.Specifications {
			items = append(items, Item{
				Key: ItemKey{
					StandardCode: standardCode,
					SpecCode:     strings.TrimSpace(spec.Code),
				},
				Text: strings.TrimSpace(spec.Text),
			})
		}
	}
	return New(items)
}
