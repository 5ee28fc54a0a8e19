// Package archive persists scraped legal documents. Each content category
// gets its own table keyed by source URL, so re-scraping a page refreshes
// the stored copy instead of duplicating it.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS documents (
	id %[1]s,
	category TEXT NOT NULL,
	title TEXT,
	url TEXT UNIQUE NOT NULL,
	text_content TEXT,
	html_content TEXT,
	metadata_json TEXT,
	crawled_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS us_code (
	id %[1]s,
	title INTEGER NOT NULL,
	chapter TEXT,
	section TEXT,
	section_title TEXT,
	text_content TEXT,
	html_content TEXT,
	url TEXT UNIQUE NOT NULL,
	crawled_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS cfr (
	id %[1]s,
	title INTEGER NOT NULL,
	chapter TEXT,
	part TEXT,
	section TEXT,
	section_title TEXT,
	text_content TEXT,
	html_content TEXT,
	url TEXT UNIQUE NOT NULL,
	crawled_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS supreme_court_cases (
	id %[1]s,
	case_name TEXT NOT NULL,
	citation TEXT,
	docket_number TEXT,
	year INTEGER,
	text_content TEXT,
	html_content TEXT,
	url TEXT UNIQUE NOT NULL,
	metadata_json TEXT,
	crawled_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS constitution (
	id %[1]s,
	article TEXT,
	section TEXT,
	title TEXT,
	text_content TEXT,
	html_content TEXT,
	url TEXT UNIQUE NOT NULL,
	crawled_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS federal_rules (
	id %[1]s,
	rule_set TEXT NOT NULL,
	rule_number TEXT,
	title TEXT,
	text_content TEXT,
	html_content TEXT,
	url TEXT UNIQUE NOT NULL,
	crawled_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_category ON documents (category);
CREATE INDEX IF NOT EXISTS idx_us_code_title ON us_code (title);
CREATE INDEX IF NOT EXISTS idx_cfr_title ON cfr (title);
CREATE INDEX IF NOT EXISTS idx_scotus_year ON supreme_court_cases (year);
`

// USCodeSection is one archived section of the United States Code
type USCodeSection struct {
	Title        int
	Chapter      *string
	Section      string
	SectionTitle string
	TextContent  string
	HTMLContent  string
	URL          string
}

// CFRSection is one archived section of the Code of Federal Regulations
type CFRSection struct {
	Title        int
	Chapter      *string
	Part         *string
	Section      string
	SectionTitle string
	TextContent  string
	HTMLContent  string
	URL          string
}

// SupremeCourtCase is one archived opinion
type SupremeCourtCase struct {
	CaseName     string
	Citation     *string
	DocketNumber *string
	Year         *int
	TextContent  string
	HTMLContent  string
	URL          string
	Metadata     map[string]any
}

// ConstitutionSection is one archived article or amendment
type ConstitutionSection struct {
	Article     *string
	Section     *string
	Title       string
	TextContent string
	HTMLContent string
	URL         string
}

// FederalRule is one archived rule of procedure or evidence
type FederalRule struct {
	RuleSet     string
	RuleNumber  *string
	Title       string
	TextContent string
	HTMLContent string
	URL         string
}

// Document is an archived page outside the structured categories
type Document struct {
	Category    string
	Title       string
	TextContent string
	HTMLContent string
	URL         string
	Metadata    map[string]any
}

// Counts holds archived document totals per category
type Counts struct {
	USCode            int64 `json:"us_code_sections"`
	CFR               int64 `json:"cfr_sections"`
	SupremeCourtCases int64 `json:"supreme_court_cases"`
	Constitution      int64 `json:"constitution_sections"`
	FederalRules      int64 `json:"federal_rules"`
	Documents         int64 `json:"other_documents"`
	Total             int64 `json:"total"`
}

// Store owns document persistence
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates an archive Store
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Init creates the archive tables and indexes if they do not exist
func (s *Store) Init(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	schema := fmt.Sprintf(schemaTemplate, idColumn)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return nil
}

// SaveUSCode upserts a US Code section by URL
func (s *Store) SaveUSCode(ctx context.Context, section USCodeSection) error {
	query := s.db.Rebind(`
		INSERT INTO us_code (title, chapter, section, section_title, text_content, html_content, url, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			chapter = excluded.chapter,
			section = excluded.section,
			section_title = excluded.section_title,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			crawled_at = excluded.crawled_at
	`)

	_, err := s.db.ExecContext(ctx, query,
		section.Title, section.Chapter, section.Section, section.SectionTitle,
		section.TextContent, section.HTMLContent, section.URL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save US Code section %s: %w", section.URL, err)
	}

	s.logger.Debug("Saved US Code section",
		slog.Int("title", section.Title),
		slog.String("section", section.Section),
	)
	return nil
}

// SaveCFR upserts a CFR section by URL
func (s *Store) SaveCFR(ctx context.Context, section CFRSection) error {
	query := s.db.Rebind(`
		INSERT INTO cfr (title, chapter, part, section, section_title, text_content, html_content, url, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			chapter = excluded.chapter,
			part = excluded.part,
			section = excluded.section,
			section_title = excluded.section_title,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			crawled_at = excluded.crawled_at
	`)

	_, err := s.db.ExecContext(ctx, query,
		section.Title, section.Chapter, section.Part, section.Section, section.SectionTitle,
		section.TextContent, section.HTMLContent, section.URL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save CFR section %s: %w", section.URL, err)
	}

	s.logger.Debug("Saved CFR section",
		slog.Int("title", section.Title),
		slog.String("section", section.Section),
	)
	return nil
}

// SaveSupremeCourtCase upserts a Supreme Court case by URL
func (s *Store) SaveSupremeCourtCase(ctx context.Context, courtCase SupremeCourtCase) error {
	metadataJSON, err := marshalMetadata(courtCase.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal case metadata for %s: %w", courtCase.URL, err)
	}

	query := s.db.Rebind(`
		INSERT INTO supreme_court_cases (case_name, citation, docket_number, year, text_content, html_content, url, metadata_json, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			case_name = excluded.case_name,
			citation = excluded.citation,
			docket_number = excluded.docket_number,
			year = excluded.year,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			metadata_json = excluded.metadata_json,
			crawled_at = excluded.crawled_at
	`)

	_, err = s.db.ExecContext(ctx, query,
		courtCase.CaseName, courtCase.Citation, courtCase.DocketNumber, courtCase.Year,
		courtCase.TextContent, courtCase.HTMLContent, courtCase.URL, metadataJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save Supreme Court case %s: %w", courtCase.URL, err)
	}

	s.logger.Debug("Saved Supreme Court case",
		slog.String("case_name", courtCase.CaseName),
	)
	return nil
}

// SaveConstitution upserts a Constitution article or amendment by URL
func (s *Store) SaveConstitution(ctx context.Context, section ConstitutionSection) error {
	query := s.db.Rebind(`
		INSERT INTO constitution (article, section, title, text_content, html_content, url, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			article = excluded.article,
			section = excluded.section,
			title = excluded.title,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			crawled_at = excluded.crawled_at
	`)

	_, err := s.db.ExecContext(ctx, query,
		section.Article, section.Section, section.Title,
		section.TextContent, section.HTMLContent, section.URL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save Constitution section %s: %w", section.URL, err)
	}

	s.logger.Debug("Saved Constitution section",
		slog.String("title", section.Title),
	)
	return nil
}

// SaveFederalRule upserts a Federal Rule by URL
func (s *Store) SaveFederalRule(ctx context.Context, rule FederalRule) error {
	query := s.db.Rebind(`
		INSERT INTO federal_rules (rule_set, rule_number, title, text_content, html_content, url, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			rule_set = excluded.rule_set,
			rule_number = excluded.rule_number,
			title = excluded.title,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			crawled_at = excluded.crawled_at
	`)

	_, err := s.db.ExecContext(ctx, query,
		rule.RuleSet, rule.RuleNumber, rule.Title,
		rule.TextContent, rule.HTMLContent, rule.URL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save federal rule %s: %w", rule.URL, err)
	}

	s.logger.Debug("Saved federal rule",
		slog.String("rule_set", rule.RuleSet),
		slog.String("title", rule.Title),
	)
	return nil
}

// SaveDocument upserts an uncategorized document by URL
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal document metadata for %s: %w", doc.URL, err)
	}

	query := s.db.Rebind(`
		INSERT INTO documents (category, title, url, text_content, html_content, metadata_json, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			category = excluded.category,
			title = excluded.title,
			text_content = excluded.text_content,
			html_content = excluded.html_content,
			metadata_json = excluded.metadata_json,
			crawled_at = excluded.crawled_at
	`)

	_, err = s.db.ExecContext(ctx, query,
		doc.Category, doc.Title, doc.URL, doc.TextContent, doc.HTMLContent, metadataJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.URL, err)
	}

	s.logger.Debug("Saved document",
		slog.String("category", doc.Category),
		slog.String("url", doc.URL),
	)
	return nil
}

// Counts returns archived document totals per category
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	counts := &Counts{}

	tables := []struct {
		name string
		dest *int64
	}{
		{"us_code", &counts.USCode},
		{"cfr", &counts.CFR},
		{"supreme_court_cases", &counts.SupremeCourtCases},
		{"constitution", &counts.Constitution},
		{"federal_rules", &counts.FederalRules},
		{"documents", &counts.Documents},
	}

	for _, table := range tables {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table.name)
		if err := s.db.GetContext(ctx, table.dest, query); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table.name, err)
		}
		counts.Total += *table.dest
	}

	return counts, nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	return string(raw), nil
}
