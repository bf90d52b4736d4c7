package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

func TestLegendSizes(t *testing.T) {
	assert.Len(t, ACPRActivities, 4)
	assert.Len(t, ACPRServices, 9)
	assert.Len(t, ACPRInstruments, 5)
	assert.Len(t, CBServices, 15)
	assert.Len(t, CBInstruments, 10)
}

func TestACPRActivityCode_ReverseLookup(t *testing.T) {
	code, ok := ACPRActivityCode("Tenue de compte-conservation")
	assert.True(t, ok)
	assert.Equal(t, model.ActivityCode(3), code)

	_, ok = ACPRActivityCode("Pas une activité")
	assert.False(t, ok)
}

func TestServiceLabels_RegimeSelectsLegend(t *testing.T) {
	key := model.ServiceKey{Instrument: 1, Service: 9}

	inst, svc := ServiceLabels(model.RegimeDomestic, key)
	assert.Equal(t, "Titres de capital émis par les sociétés par action", inst)
	assert.Equal(t, "Exploitation d'un système multilatéral de négociation", svc)

	inst, svc = ServiceLabels(model.RegimePassporting, key)
	assert.Equal(t, "Valeurs mobilières", inst)
	assert.Equal(t, "Conservation et administration d'IF pour le compte de clients, y compris la garde et les services connexes, comme la gestion de trésorerie de garanties", svc)
}

func TestMatchers_CoverEveryCBInstrument(t *testing.T) {
	// Every CB instrument has a domestic translation; services only up to
	// code 8, with custody (9) mapping to an activity instead.
	for code := range CBInstruments {
		assert.NotEmpty(t, CBToACPRInstruments[code], "instrument %d", code)
	}
	assert.Len(t, CBToACPRServices, 8)
	assert.Equal(t, []model.ActivityCode{3}, CBToACPRActivities[9])
}
