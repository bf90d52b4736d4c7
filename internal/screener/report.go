package screener

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/taxonomy"
)

// WriteText renders the ranked firms as the screening report: one block per
// firm (highest score first) with its identity line followed by one line per
// authorized activity and provided service, blocks separated by a blank line.
// Authorization labels come from the firm's own regime legend.
func WriteText(w io.Writer, ranked []model.RankedFirm) error {
	for i, entry := range ranked {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return eris.Wrap(err, "screener: write report")
			}
		}
		if err := writeFirmText(w, entry); err != nil {
			return err
		}
	}
	return nil
}

func writeFirmText(w io.Writer, entry model.RankedFirm) error {
	firm := entry.Firm
	if _, err := fmt.Fprintf(w, "%s (%05d) : %s, %s [score %d]\n",
		firm.Name, firm.CIB, firm.Category, firm.AuthorizationType, entry.Score); err != nil {
		return eris.Wrap(err, "screener: write report")
	}

	if len(firm.Activities) > 0 {
		fmt.Fprintln(w, "\tActivités autorisées")
		for _, activity := range firm.Activities {
			fmt.Fprintf(w, "\t\t%s\n", taxonomy.ACPRActivities[activity])
		}
	}
	if len(firm.Services) > 0 {
		fmt.Fprintln(w, "\tServices fournis")
		for _, key := range firm.Services.Sorted() {
			instrument, service := taxonomy.ServiceLabels(firm.Regime, key)
			fmt.Fprintf(w, "\t\t%s: %s\n", instrument, service)
		}
	}
	return nil
}

var reportColumns = []string{"rank", "score", "cib", "name", "category", "authorization_type", "city", "country"}

// WriteCSV renders the ranking as a flat CSV table.
func WriteCSV(w io.Writer, ranked []model.RankedFirm) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return eris.Wrap(err, "screener: write csv header")
	}
	for i, entry := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(entry.Score),
			fmt.Sprintf("%05d", entry.Firm.CIB),
			entry.Firm.Name,
			entry.Firm.Category,
			entry.Firm.AuthorizationType,
			entry.Firm.City,
			entry.Firm.Country,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "screener: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "screener: flush csv")
}

// WriteXLSX renders the ranking as a single-sheet workbook.
func WriteXLSX(w io.Writer, ranked []model.RankedFirm) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Screening")
	if err != nil {
		return eris.Wrap(err, "screener: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range reportColumns {
		header.AddCell().SetString(col)
	}
	for i, entry := range ranked {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetInt(entry.Score)
		row.AddCell().SetString(fmt.Sprintf("%05d", entry.Firm.CIB))
		row.AddCell().SetString(entry.Firm.Name)
		row.AddCell().SetString(entry.Firm.Category)
		row.AddCell().SetString(entry.Firm.AuthorizationType)
		row.AddCell().SetString(entry.Firm.City)
		row.AddCell().SetString(entry.Firm.Country)
	}
	return eris.Wrap(file.Write(w), "screener: write xlsx")
}
