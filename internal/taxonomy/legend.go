// Package taxonomy holds the registry's authorization code tables: the ACPR
// (domestic) activity/service/instrument legends, the CB legends used for EU
// passporting declarations, and the CB→ACPR matcher tables. Codes and labels
// are the registry's own and must not be renumbered or reworded.
package taxonomy

import "github.com/equinoxe-ovh/regafind/internal/model"

// ACPRActivities maps domestic authorized-activity codes to their labels.
var ACPRActivities = map[model.ActivityCode]string{
	1: "Cautions réglementées",
	2: "Compensation d'instruments financiers",
	3: "Tenue de compte-conservation",
	4: "Contrepartie centrale",
}

// ACPRServices maps domestic investment-service codes to their labels.
var ACPRServices = map[int]string{
	1: "Réception et transmission d'ordres pour le compte de tiers",
	2: "Exécution d'ordres pour le compte de tiers",
	3: "Négociation pour compte propre",
	4: "Gestion de portefeuille pour le compte de tiers",
	5: "Conseil en investissement",
	6: "Prise ferme",
	7: "Placement garanti",
	8: "Placement non garanti",
	9: "Exploitation d'un système multilatéral de négociation",
}

// ACPRInstruments maps domestic instrument codes to their labels.
var ACPRInstruments = map[int]string{
	1: "Titres de capital émis par les sociétés par action",
	2: "Titres de créance",
	3: "Parts ou actions d'organismes de placements collectifs",
	4: "Instruments financiers à terme",
	5: "Autres instruments financiers étrangers",
}

// CBServices maps passporting service codes to their labels.
var CBServices = map[int]string{
	1:  "Réception et transmission d'ordres pour le compte de tiers",
	2:  "Exécution d'ordres pour le compte de tiers",
	3:  "Négociation pour compte propre",
	4:  "Gestion de portefeuille pour le compte de tiers",
	5:  "Conseil en investissement",
	6:  "Prise ferme / placement avec engagement ferme",
	7:  "Placement non garanti",
	8:  "Exploitation d'un système multilatérale de négociation",
	9:  "Conservation et administration d'IF pour le compte de clients, y compris la garde et les services connexes, comme la gestion de trésorerie de garanties",
	10: "Octroi d'un crédit ou d'un prêt à un investisseur pour lui permettre d'effectuer une transaction sur un ou plusieurs instruments financiers, dans laquelle intervient l'entreprise qui octroie le crédit ou le prêt",
	11: "Conseil aux entreprises en matière de structure du capital, de stratégie industrielle et de questions connexes - conseil et services en matière de fusions et de rachat d'entreprises",
	12: "Services de change lorsque ces services sont liés à la fourniture de services d'investissement",
	13: "Recherche en investissements et analyse financière ou toute autre forme de recommandation générale concernant les transactions sur instruments financiers",
	14: "Services liés à la prise ferme",
	15: "Les services et activités d'investissement concernant le marché sous-jacent",
}

// CBInstruments maps passporting instrument codes to their labels.
var CBInstruments = map[int]string{
	1:  "Valeurs mobilières",
	2:  "Instruments du marché monétaire",
	3:  "Parts d'organismes de placement collectif",
	4:  "Instruments financiers à terme sur sous-jacent financier (c.f. Annexe 1 Section C de la directive MIF)",
	5:  "Instruments financiers à terme sur matières premières 1 (c.f. Annexe 1 Section C de la directive MIF)",
	6:  "Instruments financiers à terme sur matières premières 2 (c.f. Annexe 1 Section C de la directive MIF)",
	7:  "Instruments financiers à terme sur matières premières 3 (c.f. Annexe 1 Section C de la directive MIF)",
	8:  "Instruments financiers à terme dérivés de crédit (c.f. Annexe 1 Section C de la directive MIF)",
	9:  "Contrats financiers pour différences",
	10: "Instruments financiers à terme sur sous-jacent immatériel (c.f. Annexe 1 Section C de la directive MIF)",
}

// acprActivityCodes is the reverse ACPR activity legend, label → code.
var acprActivityCodes = func() map[string]model.ActivityCode {
	m := make(map[string]model.ActivityCode, len(ACPRActivities))
	for code, label := range ACPRActivities {
		m[label] = code
	}
	return m
}()

// ACPRActivityCode resolves a domestic activity label back to its code.
// The registry lists activities by label only, so extraction matches on text.
func ACPRActivityCode(label string) (model.ActivityCode, bool) {
	code, ok := acprActivityCodes[label]
	return code, ok
}

// ServiceLabels returns the service and instrument labels for a key under the
// given regime. Unknown codes yield empty strings.
func ServiceLabels(regime model.Regime, key model.ServiceKey) (instrument, service string) {
	if regime == model.RegimePassporting {
		return CBInstruments[key.Instrument], CBServices[key.Service]
	}
	return ACPRInstruments[key.Instrument], ACPRServices[key.Service]
}
