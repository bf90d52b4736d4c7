package fetch

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"go.uber.org/zap"
)

// cibColumn is the header of the identifier column in the register's CSV
// export.
const cibColumn = "Code Banque (CIB) ou N° d'enregistrement"

// CIBList reads the register's CSV export and returns every firm identifier
// in file order. The export is Latin-1 with ';' separators, and identifiers
// are wrapped in an Excel formula, `=("12345")`. Rows without an identifier
// (some exempt firms) are skipped. Duplicate identifiers are kept: the same
// CIB listed twice carries the same authorizations and later entries simply
// overwrite earlier ones downstream.
func CIBList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: open export %s", path)
	}
	defer f.Close()
	return readCIBs(charmap.ISO8859_1.NewDecoder().Reader(f))
}

func readCIBs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	// The export opens with blank lines before the header row.
	column := -1
	for column < 0 {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, eris.New("fetch: export has no header row")
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetch: read export header")
		}
		for i, field := range record {
			if strings.TrimSpace(field) == cibColumn {
				column = i
				break
			}
		}
	}

	var cibs []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return cibs, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetch: read export row")
		}
		if column >= len(record) {
			continue
		}
		cib := unquoteFormula(record[column])
		if cib == "" {
			zap.L().Debug("fetch: export row without identifier, skipped")
			continue
		}
		cibs = append(cibs, cib)
	}
}

// unquoteFormula strips the `=("...")` wrapper the export puts around
// identifiers to keep spreadsheets from eating leading zeros.
func unquoteFormula(field string) string {
	field = strings.TrimSpace(field)
	if i := strings.IndexByte(field, '"'); i >= 0 {
		field = field[i+1:]
		if j := strings.IndexByte(field, '"'); j >= 0 {
			return field[:j]
		}
		return ""
	}
	return field
}
