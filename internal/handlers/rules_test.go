package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFederalRules(t *testing.T) {
	// No fixtures registered: the rule sets are pinned, so the handler
	// must not fetch anything.
	handler := &DiscoverFederalRules{fetcher: &fakeFetcher{}, logger: testLogger()}

	job := testJob(t, TypeDiscoverFederalRules, testBaseURL+"/rules", nil)

	result, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, result.Children, 6)
	assert.Equal(t, 6, result.Summary["rule_sets_found"])

	var codes []string
	for _, child := range result.Children {
		assert.Equal(t, TypeDiscoverFederalRuleSections, child.JobType)
		assert.Equal(t, priorityDiscovery, child.Priority)
		params, ok := child.Params.(ruleSetParams)
		require.True(t, ok)
		codes = append(codes, params.RuleSet)
		assert.Equal(t, testBaseURL+"/rules/"+params.RuleSet, child.URL)
		assert.NotEmpty(t, params.Name)
	}
	assert.Equal(t, []string{"frap", "frcp", "frcrmp", "fre", "frbp", "supct"}, codes)
}

const frcpIndexHTML = `<html><body>
<div class="content">
<h1>Federal Rules of Civil Procedure</h1>
<ul>
<li><a href="/rules/frcp/rule_12">Rule 12. Defenses and Objections</a></li>
<li><a href="/rules/frcp/rule_4.1">Rule 4.1. Serving Other Process</a></li>
<li><a href="/rules/frap/rule_3">Rule 3 (Appellate)</a></li>
<li><a href="/rules/frcp">FRCP Home</a></li>
</ul>
</div>
</body></html>`

func TestDiscoverFederalRuleSections(t *testing.T) {
	setURL := testBaseURL + "/rules/frcp"
	fetcher := &fakeFetcher{pages: map[string]string{setURL: frcpIndexHTML}}
	handler := &DiscoverFederalRuleSections{fetcher: fetcher, logger: testLogger()}

	job := testJob(t, TypeDiscoverFederalRuleSections, setURL,
		ruleSetParams{RuleSet: "frcp", Name: "Federal Rules of Civil Procedure"})

	result, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)

	// Rules from other sets stay out of this set's fan-out.
	require.Len(t, result.Children, 2)
	assert.Equal(t, "frcp", result.Summary["rule_set"])

	first := result.Children[0]
	assert.Equal(t, TypeScrapeFederalRule, first.JobType)
	assert.Equal(t, testBaseURL+"/rules/frcp/rule_12", first.URL)
	assert.Equal(t, priorityCaseScrape, first.Priority)
	assert.Equal(t, ruleParams{
		RuleSet:     "frcp",
		RuleNumber:  "12",
		RuleSetName: "Federal Rules of Civil Procedure",
	}, first.Params)

	second := result.Children[1].Params.(ruleParams)
	assert.Equal(t, "4.1", second.RuleNumber)
}

func TestScrapeFederalRule(t *testing.T) {
	tests := []struct {
		name           string
		html           string
		params         ruleParams
		wantTitle      string
		wantRuleNumber *string
	}{
		{
			name: "titled rule",
			html: `<html><body><div class="content"><h1>Rule 12. Defenses and Objections</h1>` +
				`<p>Every defense to a claim for relief must be asserted.</p></div></body></html>`,
			params:         ruleParams{RuleSet: "frcp", RuleNumber: "12"},
			wantTitle:      "Rule 12. Defenses and Objections",
			wantRuleNumber: strPtr("12"),
		},
		{
			name:           "untitled falls back to rule number",
			html:           `<html><body><p>Reserved.</p></body></html>`,
			params:         ruleParams{RuleSet: "frcp", RuleNumber: "4.1"},
			wantTitle:      "Rule 4.1",
			wantRuleNumber: strPtr("4.1"),
		},
		{
			name:      "no rule number",
			html:      `<html><body><div class="content"><h1>Scope of Rules</h1></div></body></html>`,
			params:    ruleParams{RuleSet: "supct"},
			wantTitle: "Scope of Rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ruleURL := testBaseURL + "/rules/" + tt.params.RuleSet + "/rule_x"
			fetcher := &fakeFetcher{pages: map[string]string{ruleURL: tt.html}}
			store := &fakeArchive{}
			handler := &ScrapeFederalRule{fetcher: fetcher, store: store, logger: testLogger()}

			job := testJob(t, TypeScrapeFederalRule, ruleURL, tt.params)

			result, err := handler.Handle(context.Background(), job)
			require.NoError(t, err)
			assert.Equal(t, tt.params.RuleSet, result.Summary["rule_set"])

			require.Len(t, store.rules, 1)
			saved := store.rules[0]
			assert.Equal(t, tt.params.RuleSet, saved.RuleSet)
			assert.Equal(t, tt.wantRuleNumber, saved.RuleNumber)
			assert.Equal(t, tt.wantTitle, saved.Title)
			assert.Equal(t, ruleURL, saved.URL)
		})
	}
}
