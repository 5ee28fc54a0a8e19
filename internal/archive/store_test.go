package archive

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawvault/lawvault/shared/sqldb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := sqldb.NewClient(&sqldb.Config{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "archive_test.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := NewStore(client.GetDB(), logger)
	require.NoError(t, store.Init(context.Background()))

	return store
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestStore_SaveUSCode_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	section := USCodeSection{
		Title:        17,
		Chapter:      strPtr("17"),
		Section:      "107",
		SectionTitle: "Fair use",
		TextContent:  "Notwithstanding the provisions...",
		HTMLContent:  `<div class="content">...</div>`,
		URL:          "https://www.law.cornell.edu/uscode/text/17/107",
	}
	require.NoError(t, store.SaveUSCode(ctx, section))

	// A re-scrape of the same URL replaces the stored copy.
	section.SectionTitle = "Limitations on exclusive rights: Fair use"
	require.NoError(t, store.SaveUSCode(ctx, section))

	var count int
	require.NoError(t, store.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM us_code"))
	assert.Equal(t, 1, count)

	var storedTitle string
	require.NoError(t, store.db.GetContext(ctx, &storedTitle,
		store.db.Rebind("SELECT section_title FROM us_code WHERE url = ?"), section.URL))
	assert.Equal(t, "Limitations on exclusive rights: Fair use", storedTitle)
}

func TestStore_SaveCFR(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveCFR(ctx, CFRSection{
		Title:        40,
		Part:         strPtr("60"),
		Section:      "60.1",
		SectionTitle: "Applicability",
		TextContent:  "The provisions of this part apply...",
		URL:          "https://www.law.cornell.edu/cfr/text/40/60.1",
	}))

	var row struct {
		Title   int     `db:"title"`
		Part    *string `db:"part"`
		Chapter *string `db:"chapter"`
	}
	require.NoError(t, store.db.GetContext(ctx, &row,
		"SELECT title, part, chapter FROM cfr LIMIT 1"))
	assert.Equal(t, 40, row.Title)
	require.NotNil(t, row.Part)
	assert.Equal(t, "60", *row.Part)
	assert.Nil(t, row.Chapter)
}

func TestStore_SaveSupremeCourtCase(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveSupremeCourtCase(ctx, SupremeCourtCase{
		CaseName:     "Roe v. Wade",
		Citation:     strPtr("410 U.S. 113"),
		DocketNumber: strPtr("No. 70-18"),
		Year:         intPtr(1973),
		TextContent:  "Opinion of the Court...",
		URL:          "https://www.law.cornell.edu/supremecourt/text/410/113",
		Metadata: map[string]any{
			"citation": "410 U.S. 113",
			"year":     1973,
		},
	}))

	var row struct {
		CaseName     string  `db:"case_name"`
		Citation     *string `db:"citation"`
		Year         *int    `db:"year"`
		MetadataJSON *string `db:"metadata_json"`
	}
	require.NoError(t, store.db.GetContext(ctx, &row,
		"SELECT case_name, citation, year, metadata_json FROM supreme_court_cases LIMIT 1"))
	assert.Equal(t, "Roe v. Wade", row.CaseName)
	require.NotNil(t, row.Citation)
	assert.Equal(t, "410 U.S. 113", *row.Citation)
	require.NotNil(t, row.Year)
	assert.Equal(t, 1973, *row.Year)
	require.NotNil(t, row.MetadataJSON)
	assert.JSONEq(t, `{"citation":"410 U.S. 113","year":1973}`, *row.MetadataJSON)
}

func TestStore_SaveSupremeCourtCase_NoMetadata(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveSupremeCourtCase(ctx, SupremeCourtCase{
		CaseName: "Marbury v. Madison",
		URL:      "https://www.law.cornell.edu/supremecourt/text/5/137",
	}))

	var metadataJSON *string
	require.NoError(t, store.db.GetContext(ctx, &metadataJSON,
		"SELECT metadata_json FROM supreme_court_cases LIMIT 1"))
	assert.Nil(t, metadataJSON)
}

func TestStore_Counts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total)

	require.NoError(t, store.SaveUSCode(ctx, USCodeSection{
		Title: 17, Section: "107",
		URL: "https://www.law.cornell.edu/uscode/text/17/107",
	}))
	require.NoError(t, store.SaveUSCode(ctx, USCodeSection{
		Title: 17, Section: "108",
		URL: "https://www.law.cornell.edu/uscode/text/17/108",
	}))
	require.NoError(t, store.SaveCFR(ctx, CFRSection{
		Title: 40, Section: "60.1",
		URL: "https://www.law.cornell.edu/cfr/text/40/60.1",
	}))
	require.NoError(t, store.SaveSupremeCourtCase(ctx, SupremeCourtCase{
		CaseName: "Roe v. Wade",
		URL:      "https://www.law.cornell.edu/supremecourt/text/410/113",
	}))
	require.NoError(t, store.SaveConstitution(ctx, ConstitutionSection{
		Article: strPtr("articlei"), Title: "Article I",
		URL: "https://www.law.cornell.edu/constitution/articlei",
	}))
	require.NoError(t, store.SaveFederalRule(ctx, FederalRule{
		RuleSet: "frcp", RuleNumber: strPtr("11"), Title: "Rule 11",
		URL: "https://www.law.cornell.edu/rules/frcp/rule_11",
	}))
	require.NoError(t, store.SaveDocument(ctx, Document{
		Category: "misc", Title: "About",
		URL: "https://www.law.cornell.edu/about",
	}))

	counts, err = store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.USCode)
	assert.Equal(t, int64(1), counts.CFR)
	assert.Equal(t, int64(1), counts.SupremeCourtCases)
	assert.Equal(t, int64(1), counts.Constitution)
	assert.Equal(t, int64(1), counts.FederalRules)
	assert.Equal(t, int64(1), counts.Documents)
	assert.Equal(t, int64(7), counts.Total)
}
