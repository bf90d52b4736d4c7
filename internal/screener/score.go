package screener

import "github.com/equinoxe-ovh/regafind/internal/model"

// Score sums the weights of every rule key present in the given activity and
// service collections. Pure; the caller decides where the score lives.
func Score(activities []model.ActivityCode, services model.ServiceSet, rules RuleTable) int {
	score := 0
	seen := make(map[model.ActivityCode]bool, len(activities))
	for _, a := range activities {
		if seen[a] {
			continue
		}
		seen[a] = true
		score += rules.Activities[a]
	}
	for key, weight := range rules.Services {
		if services.Has(key) {
			score += weight
		}
	}
	return score
}
