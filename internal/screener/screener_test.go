package screener

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

func domesticFirm(cib int, activities []model.ActivityCode, services ...model.ServiceKey) *model.Firm {
	return &model.Firm{
		CIB:        cib,
		Name:       "Firm",
		Regime:     model.RegimeDomestic,
		Activities: activities,
		Services:   model.NewServiceSet(services...),
	}
}

func TestNormalize_DomesticIsIdentity(t *testing.T) {
	firm := domesticFirm(10057, []model.ActivityCode{3}, model.ServiceKey{Instrument: 1, Service: 2})
	activities, services := Normalize(firm)
	assert.Equal(t, firm.Activities, activities)
	assert.Equal(t, firm.Services, services)
}

func TestNormalize_PassportingInstrumentFanOut(t *testing.T) {
	// CB instrument 1 covers ACPR instruments {1, 2}; CB service 1 maps 1:1.
	firm := &model.Firm{
		CIB:      10033,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 1}),
	}
	activities, services := Normalize(firm)
	assert.Empty(t, activities)
	assert.Equal(t, model.NewServiceSet(
		model.ServiceKey{Instrument: 1, Service: 1},
		model.ServiceKey{Instrument: 2, Service: 1},
	), services)
}

func TestNormalize_ServiceAndInstrumentCrossProduct(t *testing.T) {
	// CB service 6 → ACPR services {6, 7}; CB instrument 5 → ACPR {2, 9}.
	firm := &model.Firm{
		CIB:      10033,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 5, Service: 6}),
	}
	_, services := Normalize(firm)
	assert.Equal(t, model.NewServiceSet(
		model.ServiceKey{Instrument: 2, Service: 6},
		model.ServiceKey{Instrument: 2, Service: 7},
		model.ServiceKey{Instrument: 9, Service: 6},
		model.ServiceKey{Instrument: 9, Service: 7},
	), services)
}

func TestNormalize_CustodyServiceBecomesActivity(t *testing.T) {
	// CB service 9 has no service translation; it maps to ACPR activity 3.
	firm := &model.Firm{
		CIB:      23,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 3, Service: 9}),
	}
	activities, services := Normalize(firm)
	assert.Equal(t, []model.ActivityCode{3}, activities)
	assert.Empty(t, services)
}

func TestNormalize_UnmappedServiceDroppedSilently(t *testing.T) {
	// CB services 10-15 have no domestic equivalent at all.
	firm := &model.Firm{
		CIB:      23,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 12}),
	}
	activities, services := Normalize(firm)
	assert.Empty(t, activities)
	assert.Empty(t, services)
}

func TestNormalize_DoesNotMutateFirm(t *testing.T) {
	firm := &model.Firm{
		CIB:      23,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 1}),
	}
	Normalize(firm)
	assert.Equal(t, model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 1}), firm.Services)
}

func TestScore_DefaultRuleTable(t *testing.T) {
	// Activity 3 weighs 4, service (1,2) weighs 3.
	score := Score(
		[]model.ActivityCode{3},
		model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 2}),
		DefaultRules(),
	)
	assert.Equal(t, 7, score)
}

func TestScore_UncoveredEntriesContributeNothing(t *testing.T) {
	score := Score(
		[]model.ActivityCode{1},
		model.NewServiceSet(model.ServiceKey{Instrument: 4, Service: 3}),
		DefaultRules(),
	)
	assert.Equal(t, 0, score)
}

func TestScore_EmptyFirm(t *testing.T) {
	assert.Equal(t, 0, Score(nil, model.NewServiceSet(), DefaultRules()))
}

func TestScore_DuplicateActivitiesCountOnce(t *testing.T) {
	score := Score([]model.ActivityCode{3, 3}, model.NewServiceSet(), DefaultRules())
	assert.Equal(t, 4, score)
}

func TestScore_NegativeWeightsRespected(t *testing.T) {
	rules := RuleTable{
		Activities: map[model.ActivityCode]int{1: -5},
		Services:   map[model.ServiceKey]int{},
	}
	assert.Equal(t, -5, Score([]model.ActivityCode{1}, model.NewServiceSet(), rules))
}

func TestRank_DescendingWithStableTies(t *testing.T) {
	// Scores 5, 7, 5, 0 in input order must rank 7, 5(first), 5(second), 0.
	rules := RuleTable{
		Activities: map[model.ActivityCode]int{1: 5, 2: 7},
		Services:   map[model.ServiceKey]int{},
	}
	firms := []*model.Firm{
		domesticFirm(1, []model.ActivityCode{1}),
		domesticFirm(2, []model.ActivityCode{2}),
		domesticFirm(3, []model.ActivityCode{1}),
		domesticFirm(4, nil),
	}

	ranked := Rank(firms, rules)
	require.Len(t, ranked, 4)
	assert.Equal(t, []int{7, 5, 5, 0}, []int{ranked[0].Score, ranked[1].Score, ranked[2].Score, ranked[3].Score})
	assert.Equal(t, 2, ranked[0].Firm.CIB)
	assert.Equal(t, 1, ranked[1].Firm.CIB)
	assert.Equal(t, 3, ranked[2].Firm.CIB)
	assert.Equal(t, 4, ranked[3].Firm.CIB)
}

func TestRank_PassportingFirmScoredOnNormalizedView(t *testing.T) {
	// CB (1,2) fans out to ACPR (1,2)+(2,2): weights 3 + 5 = 8.
	firm := &model.Firm{
		CIB:      10033,
		Regime:   model.RegimePassporting,
		Services: model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 2}),
	}
	ranked := Rank([]*model.Firm{firm}, DefaultRules())
	require.Len(t, ranked, 1)
	assert.Equal(t, 8, ranked[0].Score)
}

func TestLoadRules_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
activities:
  3: 10
services:
  - instrument: 2
    service: 9
    weight: 1
`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 10, rules.Activities[3])
	assert.Equal(t, 1, rules.Services[model.ServiceKey{Instrument: 2, Service: 9}])
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWriteText_ReportLayout(t *testing.T) {
	firm := &model.Firm{
		CIB:               10057,
		Name:              "Banque Exemple",
		Category:          "Etablissement de crédit - Banque - Prestataire de services d'investissement",
		AuthorizationType: "Agrément ACPR",
		Regime:            model.RegimeDomestic,
		Activities:        []model.ActivityCode{3},
		Services:          model.NewServiceSet(model.ServiceKey{Instrument: 1, Service: 2}),
	}
	other := &model.Firm{CIB: 55555, Name: "Paiement SAS", Category: "Etablissement de paiement", Regime: model.RegimeDomestic}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Rank([]*model.Firm{other, firm}, DefaultRules())))
	out := buf.String()

	assert.Contains(t, out, "Banque Exemple (10057)")
	assert.Contains(t, out, "[score 7]")
	assert.Contains(t, out, "Tenue de compte-conservation")
	assert.Contains(t, out, "Titres de capital émis par les sociétés par action: Exécution d'ordres pour le compte de tiers")
	assert.Contains(t, out, "\n\n")
	// Highest score first.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Banque Exemple")), bytes.Index(buf.Bytes(), []byte("Paiement SAS")))
}

func TestWriteCSV_Rows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rank([]*model.Firm{domesticFirm(42, []model.ActivityCode{3})}, DefaultRules())))
	out := buf.String()
	assert.Contains(t, out, "rank,score,cib,name")
	assert.Contains(t, out, "1,4,00042,Firm")
}

func TestWriteXLSX_ProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Rank([]*model.Firm{domesticFirm(42, nil)}, DefaultRules())))
	assert.NotZero(t, buf.Len())
}
