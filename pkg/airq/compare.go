package airq

import (
	"maps"
	"slices"
)

// ComparisonSummary describes how two consecutive data points differ.
type ComparisonSummary struct {
	// MissingKeys were present previously but are absent now.
	MissingKeys []string
	// WarmingUp are the sensors the current Status reports as warming up.
	WarmingUp []string
	// UnaccountablyMissingKeys are missing keys not explained by warm-up.
	UnaccountablyMissingKeys []string
	// NewValues holds readings absent from the previous data point.
	NewValues Response
	// Difference holds current minus previous for numeric readings present
	// in both: a float64, or a []float64 for [value, uncertainty] pairs.
	Difference map[string]any
}

// Compare summarises the change from previous to current. A reboot shows
// up as missing keys that are warming up; a failing sensor as an
// unaccountably missing key.
func Compare(current, previous Response) ComparisonSummary {
	summary := ComparisonSummary{
		WarmingUp:  WarmingUpSensors(current),
		NewValues:  Response{},
		Difference: map[string]any{},
	}

	for _, key := range slices.Sorted(maps.Keys(previous)) {
		if _, ok := current[key]; ok {
			continue
		}
		summary.MissingKeys = append(summary.MissingKeys, key)
		if !slices.Contains(summary.WarmingUp, key) {
			summary.UnaccountablyMissingKeys = append(summary.UnaccountablyMissingKeys, key)
		}
	}

	for key, value := range current {
		if key == statusKey {
			continue
		}
		prev, ok := previous[key]
		if !ok {
			summary.NewValues[key] = value
			continue
		}
		if diff, ok := difference(value, prev); ok {
			summary.Difference[key] = diff
		}
	}
	return summary
}

func difference(current, previous any) (any, bool) {
	switch cur := current.(type) {
	case float64:
		prev, ok := previous.(float64)
		if !ok {
			return nil, false
		}
		return cur - prev, true
	case []any:
		prev, ok := previous.([]any)
		if !ok || len(prev) != len(cur) {
			return nil, false
		}
		out := make([]float64, len(cur))
		for i := range cur {
			c, cok := cur[i].(float64)
			p, pok := prev[i].(float64)
			if !cok || !pok {
				return nil, false
			}
			out[i] = c - p
		}
		return out, true
	default:
		return nil, false
	}
}
