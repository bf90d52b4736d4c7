package regafi

import (
	"github.com/rotisserie/eris"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

// euPassportAuthorization is the authorization type printed for firms
// operating in France under an inbound EU passport.
const euPassportAuthorization = "Passeport européen en entrée"

// Category describes how one firm type is extracted. The registry's ~20 firm
// types differ only in which regions they carry and how many activity rows
// they list, so the behavior is plain data rather than a type hierarchy.
type Category struct {
	// Label is the stored category name. It may differ from the registry's
	// label: the EU variants of credit and financial institutions get an
	// "(EU)" suffix to disambiguate them from their domestic namesakes.
	Label string
	// Regime selects the taxonomy (and so the services grid shape).
	Regime model.Regime
	// Activities enables authorized-activity extraction.
	Activities bool
	// ExpectedActivityRows is the number of activity rows (checked or not)
	// the page should list. Zero disables the count check; a mismatch is
	// reported but extraction keeps whatever was found.
	ExpectedActivityRows int
	// Services enables services-grid extraction.
	Services bool
}

// categories is the closed dispatch table over the registry's firm-type
// labels. Firm types observed on the register but carrying no authorization
// detail (payment and e-money institutions, holdings, money changers, ...)
// appear with both extractions disabled so they still produce a record.
var categories = map[string]Category{
	"Etablissement de crédit - Banque - Prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, Services: true,
	},
	"Etablissement de crédit - Banque mutualiste ou coopérative - Prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 4, Services: true,
	},
	"Etablissement de crédit - Établissement de crédit spécialisé - Prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 4, Services: true,
	},
	"Etablissement de crédit - Banque - Non prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true,
	},
	"Etablissement de crédit - Banque mutualiste ou coopérative - Non prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 4,
	},
	"Etablissement de crédit - Établissement de crédit spécialisé - Non prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 4,
	},
	"Etablissement de crédit - Caisse de crédit municipal et établissement assimilable - Non prestataire de services d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 4,
	},
	"Entreprise d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 2, Services: true,
	},
	"Société de financement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 1,
	},
	"Société de financement/Etablissement de paiement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 1,
	},
	"Société de financement/Entreprise d'investissement": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 3, Services: true,
	},
	"Société de financement/Compagnie financière holding": {
		Regime: model.RegimeDomestic, Activities: true, ExpectedActivityRows: 1,
	},
	"Etablissement de paiement":                     {Regime: model.RegimeDomestic},
	"Etablissement de paiement à régime dérogatoire": {Regime: model.RegimeDomestic},
	"Etablissement de monnaie électronique":          {Regime: model.RegimeDomestic},
	"Société de tiers-financement":                   {Regime: model.RegimeDomestic},
	"Institut de microfinance":                       {Regime: model.RegimeDomestic},
	"Compagnie financière holding":                   {Regime: model.RegimeDomestic},
	"Entreprise mère de société de financement":      {Regime: model.RegimeDomestic},
	"Changeur manuel":                                {Regime: model.RegimeDomestic},

	// Inbound EU passport firm types. Credit and financial institutions are
	// relabeled so they cannot be confused with the domestic entries above.
	"Etablissement de crédit": {
		Label: "Etablissement de crédit (EU)", Regime: model.RegimePassporting,
	},
	"Etablissement financier": {
		Label: "Etablissement financier (EU)", Regime: model.RegimePassporting,
	},
}

// euInvestmentFirm is the passporting variant of "Entreprise d'investissement",
// selected by authorization type rather than by its own label.
var euInvestmentFirm = Category{
	Label:    "Entreprise d'investissement (EU)",
	Regime:   model.RegimePassporting,
	Services: true,
}

// exemptCategories are registered but documented as exempt; they are
// intentionally excluded from the dataset rather than treated as unknown.
var exemptCategories = map[string]bool{
	"Exempté - Etablissement de paiement": true,
}

// Classify resolves a firm-type label to its extraction behavior. Investment
// firms split on the authorization type: under an inbound EU passport they
// declare the CB grid instead of the ACPR one.
func Classify(label, authorizationType string) (Category, error) {
	if exemptCategories[label] {
		return Category{}, eris.Wrapf(ErrExemptCategory, "%q", label)
	}
	if label == "Entreprise d'investissement" && authorizationType == euPassportAuthorization {
		return euInvestmentFirm, nil
	}
	cat, ok := categories[label]
	if !ok {
		return Category{}, eris.Wrapf(ErrUnknownCategory, "%q", label)
	}
	if cat.Label == "" {
		cat.Label = label
	}
	return cat, nil
}
