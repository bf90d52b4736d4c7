package screener

import (
	"sort"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

// Rank normalizes and scores every firm, then sorts descending by score.
// The sort is stable: equal scores keep their input order, so the output is
// reproducible across runs.
func Rank(firms []*model.Firm, rules RuleTable) []model.RankedFirm {
	ranked := make([]model.RankedFirm, 0, len(firms))
	for _, firm := range firms {
		activities, services := Normalize(firm)
		ranked = append(ranked, model.RankedFirm{
			Firm:  firm,
			Score: Score(activities, services, rules),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
