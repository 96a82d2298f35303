package evaluation

import "hservice/internal/models"

// Prepare normalizes the intent column into intent_enum through
// models.ParseIntent. Labels outside the intent set are left empty and
// returned, one entry per distinct label.
func Prepare(ds *Dataset) ([]string, error) {
	labels, err := ds.Values(ColumnIntent)
	if err != nil {
		return nil, err
	}
	normalized := make([]string, len(labels))
	var unknown []string
	seen := make(map[string]struct{})
	for i, label := range labels {
		in, err := models.ParseIntent(label)
		if err != nil {
			if _, ok := seen[label]; !ok {
				seen[label] = struct{}{}
				unknown = append(unknown, label)
			}
			continue
		}
		normalized[i] = string(in)
	}
	if err := ds.SetColumn(ColumnIntentEnum, normalized); err != nil {
		return nil, err
	}
	return unknown, nil
}
