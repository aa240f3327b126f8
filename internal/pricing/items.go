package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type itemsFile struct {
	Items []Item `yaml:"items"`
}

// LoadItems は先読み対象のYAMLを読む
//
//	items:
//	  - product_id: poster
//	    option_ids: [size-a3, paper-matte]
func LoadItems(path string) ([]Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}
	return ParseItems(b)
}

func ParseItems(b []byte) ([]Item, error) {
	var f itemsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	for i, it := range f.Items {
		if it.Key() == "" {
			return nil, fmt.Errorf("item %d has neither product_id nor option_ids", i)
		}
	}
	return f.Items, nil
}
