package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbsee/dbsee/internal/cli/config"
	"github.com/dbsee/dbsee/internal/cli/output"
	clitestutil "github.com/dbsee/dbsee/internal/cli/testutil"
	"github.com/dbsee/dbsee/internal/search"
	"github.com/dbsee/dbsee/internal/testutil"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	_ "github.com/dbsee/dbsee/pkg/adapters/sqlite"
)

// useFixture points the loaded configuration at a fresh demo database.
func useFixture(t *testing.T, output string) {
	t.Helper()
	target := testutil.FixtureConfig(t)
	yaml := fmt.Sprintf("target:\n  type: sqlite\n  database: %s\noutput: %s\n", target.Database, output)
	path := filepath.Join(t.TempDir(), "dbsee.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig(path, nil)
	require.NoError(t, err)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewTablesCommand(), use: "tables"},
		{cmd: NewIdentifierTablesCommand(), use: "cig-tables"},
		{cmd: NewDescribeCommand(), use: "describe <table>"},
		{cmd: NewQueryCommand(), use: "query <table>", flags: []string{"filter", "search", "page", "page-size", "order-by", "order-dir"}},
		{cmd: NewResolveCommand(), use: "resolve <cig>"},
		{cmd: NewScanCommand(), use: "scan <name>", flags: []string{"year", "stream"}},
		{cmd: NewDirectCommand(), use: "direct <name>", flags: []string{"year", "stream"}},
		{cmd: NewServeCommand("test"), use: "serve", flags: []string{"port"}},
		{cmd: NewDemoCommand(), use: "demo <path>"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestTablesCommand(t *testing.T) {
	useFixture(t, "markdown")

	out, err := execute(t, NewTablesCommand())
	require.NoError(t, err)
	clitestutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Tables")
	assert.Contains(t, out, "- aggiudicatari_data")
	assert.Contains(t, out, "- orders")
	assert.NotContains(t, out, "goose_db_version")
}

func TestIdentifierTablesCommand_JSON(t *testing.T) {
	useFixture(t, "json")

	out, err := execute(t, NewIdentifierTablesCommand())
	require.NoError(t, err)

	var tables []string
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	assert.ElementsMatch(t, []string{"aggiudicatari_data", "cig_data", "partecipanti_data"}, tables)
}

func TestDescribeCommand(t *testing.T) {
	useFixture(t, "markdown")

	out, err := execute(t, NewDescribeCommand(), "cig_data")
	require.NoError(t, err)
	clitestutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "# Table: cig_data")
	assert.Contains(t, out, "| importo_complessivo_gara |")
	assert.Contains(t, out, "PK")
	assert.Contains(t, out, "## Foreign keys")
	assert.Contains(t, out, "stazioni_appaltanti_data(codice_fiscale)")

	_, err = execute(t, NewDescribeCommand(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestQueryCommand(t *testing.T) {
	useFixture(t, "json")

	out, err := execute(t, NewQueryCommand(), "orders", "--filter", "year=2022")
	require.NoError(t, err)

	var page core.PageResult
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Acme Corp", page.Rows[0]["name"])
	assert.Equal(t, int64(1), page.Pagination.TotalItems)

	out, err = execute(t, NewQueryCommand(), "orders", "--search", "llc", "--page-size", "1")
	require.NoError(t, err)
	page = core.PageResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Acme LLC", page.Rows[0]["name"])
	assert.Equal(t, 1, page.Pagination.PageSize)

	_, err = execute(t, NewQueryCommand(), "orders", "--filter", "nope=1")
	assert.ErrorIs(t, err, core.ErrInvalidColumn)

	_, err = execute(t, NewQueryCommand(), "orders", "--filter", "=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want column=value")
}

func TestFilterValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{in: "2022", want: int64(2022)},
		{in: "1.5", want: 1.5},
		{in: "true", want: true},
		{in: "Acme", want: "Acme"},
		{in: `"2022"`, want: "2022"},
		{in: "", want: ""},
		{in: "T", want: "T"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, filterValue(tt.in))
		})
	}
}

func TestResolveCommand(t *testing.T) {
	useFixture(t, "markdown")

	out, err := execute(t, NewResolveCommand(), "Z2B0000002")
	require.NoError(t, err)
	assert.Contains(t, out, "# CIG Z2B0000002")
	assert.Contains(t, out, "aggiudicatari_data_denominazione")
	assert.Contains(t, out, "Acme Servizi S.r.l.")

	out, err = execute(t, NewResolveCommand(), "NOPE000000")
	require.NoError(t, err)
	assert.Contains(t, out, "No data for NOPE000000")
}

func TestScanCommand(t *testing.T) {
	useFixture(t, "json")

	out, err := execute(t, NewScanCommand(), "Acme", "--year", "2022")
	require.NoError(t, err)

	var res core.ScanResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	assert.Equal(t, 2, res.TotalMatches)
	require.NotNil(t, res.YearFilter)
	assert.Equal(t, 2022, *res.YearFilter)

	_, err = execute(t, NewScanCommand(), "A")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestScanCommand_StreamNDJSON(t *testing.T) {
	useFixture(t, "json")

	out, err := execute(t, NewScanCommand(), "Acme", "--stream")
	require.NoError(t, err)

	var types []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), "every line is one event")
		types = append(types, ev.Type)
	}
	require.NotEmpty(t, types)
	assert.Equal(t, string(core.EventStatus), types[0])
	assert.Equal(t, string(core.EventFinalSummary), types[len(types)-1])
}

func TestScanCommand_StreamYAML(t *testing.T) {
	useFixture(t, "yaml")

	out, err := execute(t, NewScanCommand(), "Acme", "--stream")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---\n"), "stream starts with a document marker")
	clitestutil.AssertContains(t, out, "type: status")
	clitestutil.AssertContains(t, out, "type: final_summary")
	clitestutil.AssertNotContains(t, out, `{"type"`)
}

func TestStreamEvents_YAMLDocuments(t *testing.T) {
	tr := clitestutil.NewTestRenderer(output.ModeYAML, false)
	run := func(_ context.Context, name string, _ *int, emit search.EmitFunc) error {
		if err := emit(core.ScanEvent{Type: core.EventStatus, Data: core.StatusData{Message: "Scanning", Name: name}}); err != nil {
			return err
		}
		return emit(core.ScanEvent{Type: core.EventFinalSummary, Data: core.ScanSummaryData{Name: name, TotalMatches: 2}})
	}

	require.NoError(t, streamEvents(context.Background(), tr.Renderer, "Acme", nil, run))
	assert.Empty(t, tr.ErrorOutput())

	var docs []map[string]any
	dec := yaml.NewDecoder(strings.NewReader(tr.Output()))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)
	assert.Equal(t, "status", docs[0]["type"])
	assert.Equal(t, "final_summary", docs[1]["type"])
	assert.Equal(t, 2, docs[1]["data"].(map[string]any)["total_matches"])
}

func TestDirectCommand(t *testing.T) {
	useFixture(t, "json")

	out, err := execute(t, NewDirectCommand(), "Acme Servizi")
	require.NoError(t, err)

	var res core.DirectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.ElementsMatch(t, []string{"Z2B0000002", "Z3C0000003"}, res.Identifiers)
	assert.Len(t, res.Details, 2)
}

func TestDirectCommand_StreamText(t *testing.T) {
	useFixture(t, "text")

	out, err := execute(t, NewDirectCommand(), "Alpha", "--stream")
	require.NoError(t, err)
	clitestutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "Step 1:")
	assert.Contains(t, out, "Z1A0000001")
	assert.Contains(t, out, "1 identifiers, 1 resolved")
}

func TestRenderScan_Markdown(t *testing.T) {
	tr := clitestutil.NewTestRendererMarkdown()
	year := 2022
	res := &core.ScanResult{
		Name:       "Acme",
		YearFilter: &year,
		Found:      true,
		Results: []core.TableMatches{{
			Table:      "orders",
			Matches:    1,
			IsPriority: true,
			Rows:       []core.Row{{"name": "Acme Corp", "id": int64(1)}},
		}},
		TotalMatches:      1,
		TablesSearched:    4,
		TablesWithResults: 1,
		Skipped:           []string{"centri_di_costo_data"},
	}

	require.NoError(t, renderScan(tr.Renderer, res))
	out := tr.Output()
	clitestutil.AssertOutputMode(t, tr, "markdown")
	clitestutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Scan: Acme (2022)")
	assert.Contains(t, out, "## orders (priority): 1 matches")
	assert.Contains(t, out, "| id | name |")
	assert.Contains(t, out, "- **tables_skipped**: 1")
}

func TestRenderResolution_NotFound(t *testing.T) {
	tr := clitestutil.NewTestRendererText()
	require.NoError(t, renderResolution(tr.Renderer, &core.Resolution{Identifier: "X1", TablesSearched: 3}))
	assert.Contains(t, tr.Output(), "No data for X1 (3 tables searched)")
}

func TestRenderResolution_Modes(t *testing.T) {
	res := &core.Resolution{
		Identifier:     "Z1A0000001",
		Found:          true,
		Record:         core.MergedRecord{"cig_data_oggetto": "Servizi di pulizia"},
		SourceTables:   []string{"cig_data"},
		FieldSources:   core.FieldSource{"cig_data_oggetto": "cig_data"},
		TotalFields:    1,
		TablesSearched: 3,
	}

	tests := []struct {
		name  string
		tr    *clitestutil.TestRenderer
		mode  output.OutputMode
		check func(t *testing.T, out string)
	}{
		{
			name: "auto falls back to markdown",
			tr:   clitestutil.NewTestRendererAuto(),
			mode: output.ModeMarkdown,
			check: func(t *testing.T, out string) {
				clitestutil.AssertValidMarkdown(t, out)
				clitestutil.AssertContains(t, out, "# CIG Z1A0000001")
				clitestutil.AssertContains(t, out, "| field | value | source |")
			},
		},
		{
			name: "json",
			tr:   clitestutil.NewTestRendererJSON(),
			mode: output.ModeJSON,
			check: func(t *testing.T, out string) {
				var got core.Resolution
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.Equal(t, "Servizi di pulizia", got.Record["cig_data_oggetto"])
				clitestutil.AssertNotContains(t, out, "# CIG")
			},
		},
		{
			name: "yaml",
			tr:   clitestutil.NewTestRenderer(output.ModeYAML, false),
			mode: output.ModeYAML,
			check: func(t *testing.T, out string) {
				clitestutil.AssertContains(t, out, "cig: Z1A0000001")
				clitestutil.AssertContains(t, out, "cig_data_oggetto: Servizi di pulizia")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, renderResolution(tt.tr.Renderer, res))
			clitestutil.AssertOutputMode(t, tt.tr, tt.mode)
			tt.check(t, tt.tr.Output())
			assert.Empty(t, tt.tr.ErrorOutput())

			tt.tr.Reset()
			assert.Empty(t, tt.tr.Output())
		})
	}
}

func TestRowColumns(t *testing.T) {
	rows := []core.Row{{"b": 1, "a": 2}, {"c": 3, "a": 4}}
	assert.Equal(t, []string{"a", "b", "c"}, rowColumns(rows))
	assert.Empty(t, rowColumns(nil))
}

func TestDemoCommand(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "demo.db")
	out, err := execute(t, NewDemoCommand(), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Demo database written to "+path)
	assert.FileExists(t, path)
}
