package feature

import "strings"

// Blend between stylistic fit and roster popularity when pick rates are
// available.
const (
	metaStyleWeight = 0.65
	metaRolesWeight = 0.35
)

// MetaAlignment scores how well a profile matches the current meta for a
// title. The dominant strategy picks the vector dimension it rewards; when
// pick rates are known the popularity of the roster's roles is blended in.
// Without any meta signal the stat-derived alignment passes through.
func MetaAlignment(v Vector, dominantStrategy string, roles []string, pickRates map[string]float64) float64 {
	style := styleMatch(v, dominantStrategy)
	popularity, ok := rolePopularity(roles, pickRates)
	if !ok {
		return style
	}
	return clamp01(metaStyleWeight*style + metaRolesWeight*popularity)
}

// styleMatch maps the dominant strategy keyword onto the profile dimension
// it favors. Unknown strategies fall back to the blended alignment score.
func styleMatch(v Vector, dominantStrategy string) float64 {
	strategy := strings.ToLower(strings.TrimSpace(dominantStrategy))
	switch {
	case strategy == "":
		return v.MetaAlignment
	case strings.Contains(strategy, "aggr"), strings.Contains(strategy, "rush"),
		strings.Contains(strategy, "tempo"):
		return v.Aggression
	case strings.Contains(strategy, "macro"), strings.Contains(strategy, "control"),
		strings.Contains(strategy, "strateg"):
		return v.Macro
	case strings.Contains(strategy, "adapt"), strings.Contains(strategy, "flex"):
		return v.Adaptability
	default:
		return v.MetaAlignment
	}
}

// rolePopularity averages the meta pick rate over the roster's roles. Roles
// absent from the pick-rate table are skipped; no overlap yields no signal.
func rolePopularity(roles []string, pickRates map[string]float64) (float64, bool) {
	if len(roles) == 0 || len(pickRates) == 0 {
		return 0, false
	}
	normalized := make(map[string]float64, len(pickRates))
	for key, rate := range pickRates {
		normalized[strings.ToLower(strings.TrimSpace(key))] = rate
	}
	var sum float64
	var matched int
	for _, role := range roles {
		if rate, ok := normalized[strings.ToLower(strings.TrimSpace(role))]; ok {
			sum += clamp01(rate)
			matched++
		}
	}
	if matched == 0 {
		return 0, false
	}
	return sum / float64(matched), true
}
