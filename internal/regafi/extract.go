package regafi

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/taxonomy"
)

// Markup landmarks on a firm's registry page.
const (
	descriptionDivID   = "zone_description"
	activitiesDivID    = "zone_en_france"
	servicesSummary    = "Services d'investissement"
	checkedImgSrc      = "squelettes/img/checked.png"
	uncheckedImgSrc    = "squelettes/img/unchecked.png"
	lastUpdateDateForm = "02/01/2006"
)

var servicesTableClasses = []string{"petite-police", "services-invest"}

// Extract builds a Firm from one registry fragment. The returned error is
// fatal to this firm only; structural oddities inside the authorizations
// region (wrong row counts, missing grid) are logged and the firm is still
// produced with whatever could be decoded.
func Extract(doc *html.Node, cib int) (*model.Firm, error) {
	descriptionDiv := findDivByID(doc, descriptionDivID)
	if descriptionDiv == nil {
		return nil, eris.Wrapf(ErrMissingDescription, "cib %d", cib)
	}

	firm := &model.Firm{CIB: cib, Services: model.NewServiceSet()}
	category, err := readDescription(descriptionDiv, firm)
	if err != nil {
		return nil, err
	}

	cat, err := Classify(category, firm.AuthorizationType)
	if err != nil {
		return nil, err
	}
	firm.Category = cat.Label
	firm.Regime = cat.Regime

	if !cat.Activities && !cat.Services {
		return firm, nil
	}

	authDiv := findDivByID(doc, activitiesDivID)
	if authDiv == nil {
		zap.L().Error("regafi: authorizations region not found",
			zap.Int("cib", cib),
			zap.String("category", firm.Category),
		)
		return firm, nil
	}

	if cat.Activities {
		firm.Activities = extractActivities(authDiv, cib, cat.ExpectedActivityRows)
	}
	if cat.Services {
		extractServices(authDiv, firm, cat)
	}
	return firm, nil
}

// readDescription fills firm-level fields from the labeled <li> rows of the
// description region and returns the raw category label. A field appearing
// twice keeps the last occurrence (branch addresses list "Ville :" twice).
func readDescription(descriptionDiv *html.Node, firm *model.Firm) (string, error) {
	categoryNode := Find(descriptionDiv, func(n *html.Node) bool {
		return IsElement(n, "strong") && HasClass(n, "description")
	})
	if categoryNode == nil {
		return "", eris.Wrapf(ErrMissingDescription, "cib %d: no category label", firm.CIB)
	}
	category := FirstText(categoryNode)

	rows := FindAll(descriptionDiv, func(n *html.Node) bool {
		_, hasClass := Attr(n, "class")
		return IsElement(n, "li") && !hasClass
	})
	for _, row := range rows {
		if err := readDescriptionRow(row, firm); err != nil {
			return "", err
		}
	}
	return category, nil
}

func readDescriptionRow(row *html.Node, firm *model.Firm) error {
	key := FirstText(row)
	valueNode := FirstElement(row, "span")
	if valueNode == nil {
		return nil
	}
	value := FirstText(valueNode)

	switch key {
	case "Code banque (CIB) :":
		extracted, err := strconv.Atoi(value)
		if err != nil || extracted != firm.CIB {
			return eris.Wrapf(ErrCIBMismatch, "page says %q, requested %d", value, firm.CIB)
		}
	case "Dénomination sociale :":
		firm.Name = value
	case "Nom commercial :":
		firm.TradeName = value
	case "Forme juridique :":
		firm.LegalForm = value
	case "SIREN :":
		firm.SIREN = value
	case "LEI :":
		firm.LEI = value
	case "Nature d'autorisation :":
		firm.AuthorizationType = value
	case "Nature d'exercice :":
		firm.Status = value
	case "Adresse du siège social :":
		firm.Address = value
	case "Code postal :":
		firm.Postcode = value
	case "Ville :":
		firm.City = value
	case "Pays :":
		firm.Country = value
	case "Date de dernière mise à jour :":
		if ts, err := time.Parse(lastUpdateDateForm, value); err == nil {
			firm.LastUpdate = &ts
		}
	}
	return nil
}

// extractActivities reads the authorized-activity rows: tables without a
// class attribute and with an empty summary, one activity per <tr>, a
// checkbox image in the first cell and the activity label in the second.
// Only checked rows whose label resolves in the ACPR legend are kept.
func extractActivities(authDiv *html.Node, cib, expectedRows int) []model.ActivityCode {
	var rows []*html.Node
	tables := FindAll(authDiv, func(n *html.Node) bool {
		if !IsElement(n, "table") {
			return false
		}
		if _, hasClass := Attr(n, "class"); hasClass {
			return false
		}
		summary, hasSummary := Attr(n, "summary")
		return hasSummary && summary == ""
	})
	for _, table := range tables {
		rows = append(rows, FindAll(table, func(n *html.Node) bool { return IsElement(n, "tr") })...)
	}

	if expectedRows != 0 && len(rows) != expectedRows {
		// Non-fatal: keep whatever was decoded.
		zap.L().Error("regafi: unexpected number of activity rows",
			zap.Int("cib", cib),
			zap.Int("got", len(rows)),
			zap.Int("want", expectedRows),
		)
	}

	var activities []model.ActivityCode
	for _, row := range rows {
		cells := FindAll(row, func(n *html.Node) bool { return IsElement(n, "td") })
		if len(cells) < 2 {
			continue
		}
		checked, ok := checkboxState(cells[0])
		if !ok || !checked {
			continue
		}
		label := FirstText(cells[1])
		code, ok := taxonomy.ACPRActivityCode(label)
		if !ok {
			zap.L().Warn("regafi: activity label not in ACPR legend, dropped",
				zap.Int("cib", cib),
				zap.String("label", label),
			)
			continue
		}
		activities = append(activities, code)
	}
	return activities
}

// extractServices locates the services grid and decodes it with the
// regime-appropriate traversal. A missing table or a wrong cell count is
// reported and leaves the firm's service set empty.
func extractServices(authDiv *html.Node, firm *model.Firm, cat Category) {
	traversal := DomesticOrder
	if cat.Regime == model.RegimePassporting {
		traversal = PassportingOrder
	}

	flags, err := serviceGridFlags(authDiv)
	if err == nil {
		var services model.ServiceSet
		services, err = DecodeGrid(flags, traversal)
		if err == nil {
			firm.Services = services
			return
		}
	}
	zap.L().Error("regafi: services grid extraction failed",
		zap.Int("cib", firm.CIB),
		zap.String("category", cat.Label),
		zap.Error(err),
	)
}

// serviceGridFlags collects the checkbox states of the services grid in
// document order. Grid cells are the <td> elements with a headers attribute
// whose content is one of the two checkbox images.
func serviceGridFlags(authDiv *html.Node) ([]bool, error) {
	table := Find(authDiv, func(n *html.Node) bool {
		if !IsElement(n, "table") || !HasClass(n, servicesTableClasses...) {
			return false
		}
		summary, ok := Attr(n, "summary")
		return ok && summary == servicesSummary
	})
	if table == nil {
		return nil, ErrMissingServicesTable
	}

	var flags []bool
	cells := FindAll(table, func(n *html.Node) bool {
		if !IsElement(n, "td") {
			return false
		}
		_, ok := Attr(n, "headers")
		return ok
	})
	for _, cell := range cells {
		if checked, ok := checkboxState(cell); ok {
			flags = append(flags, checked)
		}
	}
	return flags, nil
}

// checkboxState reads the checkbox image inside a cell. ok is false when the
// cell holds no recognizable checkbox.
func checkboxState(cell *html.Node) (checked, ok bool) {
	img := FirstElement(cell, "img")
	if img == nil {
		return false, false
	}
	src, _ := Attr(img, "src")
	switch {
	case strings.HasSuffix(src, checkedImgSrc):
		return true, true
	case strings.HasSuffix(src, uncheckedImgSrc):
		return false, true
	}
	return false, false
}

func findDivByID(n *html.Node, id string) *html.Node {
	return Find(n, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return IsElement(n, "div") && ok && v == id
	})
}
