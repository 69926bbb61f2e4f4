package catalog

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion kinds accepted by Suggest.
const (
	SuggestDeviceTypes = "device_types"
	SuggestBrands      = "brands"
	SuggestSeries      = "series"
	SuggestModels      = "models"
	SuggestIssues      = "issues"
)

// Suggest returns catalog entries of the given kind fuzzily matching query,
// best matches first. deviceType, brand and series narrow the candidate set
// where the kind requires it. An empty query returns all candidates in
// stored order.
func (s *Store) Suggest(kind, deviceType, brand, series, query string) ([]string, error) {
	var candidates []string
	switch kind {
	case SuggestDeviceTypes:
		candidates = s.DeviceTypes()
	case SuggestBrands:
		candidates = s.BrandsFor(deviceType)
	case SuggestSeries:
		candidates = s.SeriesFor(deviceType, brand)
	case SuggestModels:
		if series != "" {
			candidates = s.ModelsFor(deviceType, brand, series)
		} else {
			for _, models := range s.ModelsForDeviceAndBrand(deviceType, brand) {
				candidates = append(candidates, models...)
			}
			sort.Strings(candidates)
		}
	case SuggestIssues:
		candidates = s.IssuesFor(deviceType)
	default:
		return nil, fmt.Errorf("unknown suggestion kind '%s'", kind)
	}

	if query == "" {
		return candidates, nil
	}

	// Normalized fold matching tolerates casing and diacritics, which the
	// German labels make frequent.
	ranks := fuzzy.RankFindNormalizedFold(query, candidates)
	sort.Sort(ranks)

	result := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		result = append(result, rank.Target)
	}
	return result, nil
}
