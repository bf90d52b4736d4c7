package screener

import (
	"go.uber.org/zap"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/taxonomy"
)

// Normalize returns the firm's authorizations expressed in the domestic
// taxonomy, as new collections; the firm itself is never touched. Domestic
// firms pass through unchanged. For passporting firms each CB (instrument,
// service) pair fans out into the cross-product of its ACPR translations; CB
// service codes with no service translation are tried as activity equivalents
// (custody), and codes with neither are dropped — a known gap in the matcher
// tables, not an error.
func Normalize(firm *model.Firm) ([]model.ActivityCode, model.ServiceSet) {
	if firm.Regime != model.RegimePassporting {
		return firm.Activities, firm.Services
	}

	activities := make([]model.ActivityCode, 0, len(firm.Activities))
	activities = append(activities, firm.Activities...)
	services := model.NewServiceSet()

	for _, key := range firm.Services.Sorted() {
		domServices, ok := taxonomy.CBToACPRServices[key.Service]
		if !ok {
			if domActivities, ok := taxonomy.CBToACPRActivities[key.Service]; ok {
				activities = append(activities, domActivities...)
			} else {
				zap.L().Debug("screener: passporting service has no domestic equivalent, dropped",
					zap.Int("cib", firm.CIB),
					zap.Int("instrument", key.Instrument),
					zap.Int("service", key.Service),
				)
			}
			continue
		}
		for _, service := range domServices {
			for _, instrument := range taxonomy.CBToACPRInstruments[key.Instrument] {
				services.Add(model.ServiceKey{Instrument: instrument, Service: service})
			}
		}
	}
	return activities, services
}
