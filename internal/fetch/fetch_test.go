package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestCIBList_ParsesExport(t *testing.T) {
	// Header preceded by blank lines, identifiers wrapped in =("...").
	content := ";;\n\nDénomination;" + cibColumn + ";Ville\n" +
		`Banque Exemple;=("10057");Paris` + "\n" +
		`Sans identifiant;;Lyon` + "\n" +
		`Agent Exemple;=("123456");Nantes` + "\n"

	// The export is Latin-1 on disk.
	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	cibs, err := CIBList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10057", "123456"}, cibs)
}

func TestCIBList_MissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n1;2\n"), 0o644))
	_, err := CIBList(path)
	assert.Error(t, err)
}

func TestUnquoteFormula(t *testing.T) {
	assert.Equal(t, "10057", unquoteFormula(`=("10057")`))
	assert.Equal(t, "10057", unquoteFormula("10057"))
	assert.Equal(t, "", unquoteFormula(`=("`))
	assert.Equal(t, "", unquoteFormula(""))
}

func TestIsAgent(t *testing.T) {
	assert.False(t, IsAgent("10057"))
	assert.False(t, IsAgent("99999"))
	assert.True(t, IsAgent("100000"))
	assert.True(t, IsAgent("123456"))
	assert.False(t, IsAgent("not-a-number"))
}

func TestFirmFragment_TwoStepFetch(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/spip.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cib") == "10057" {
			fmt.Fprintf(w, `<html><body><table summary="%s"><tr><td>`+
				`<a href="/spip.php?page=fiche;id=4242">Banque Exemple</a>`+
				`</td></tr></table></body></html>`, resultsTableSummary)
			return
		}
		if strings.Contains(r.URL.RawQuery, "id=4242") {
			fmt.Fprint(w, `<html><body><div class="main main_evol"><div id="zone_description">`+
				`<strong class="description">Etablissement de paiement</strong></div></div></body></html>`)
			return
		}
		http.NotFound(w, r)
	})

	client := New(Options{BaseURL: srv.URL, RequestsPerSecond: 1000})
	fragment, err := client.FirmFragment(context.Background(), "10057")
	require.NoError(t, err)
	assert.Contains(t, string(fragment), `id="zone_description"`)
	assert.Contains(t, string(fragment), "Etablissement de paiement")
}

func TestBackoff_GrowsAndStaysBounded(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoff(attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(maxBackoff)*(1+jitterFraction)), "attempt %d", attempt)
	}
}

func TestFirmFragment_NoResultLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>aucun résultat</p></body></html>")
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, MaxRetries: 1, RequestsPerSecond: 1000})
	_, err := client.FirmFragment(context.Background(), "10057")
	assert.Error(t, err)
}
