package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawvault/lawvault/internal/queue"
)

type fakeEnqueuer struct {
	reqs     []queue.JobRequest
	nextID   int64
	existing bool
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, req queue.JobRequest) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	f.nextID++
	f.reqs = append(f.reqs, req)
	return f.nextID, !f.existing, nil
}

func TestSeed_All(t *testing.T) {
	enq := &fakeEnqueuer{}

	created, err := Seed(context.Background(), enq, testBaseURL+"/", []string{ContentAll}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 7, created)
	require.Len(t, enq.reqs, 7)

	type seeded struct {
		jobType  string
		url      string
		priority int
	}
	var got []seeded
	for _, req := range enq.reqs {
		assert.Nil(t, req.Params)
		got = append(got, seeded{req.JobType, req.URL, req.Priority})
	}

	assert.Equal(t, []seeded{
		{TypeDiscoverUSCodeTitles, testBaseURL + "/uscode/text", prioritySeed},
		{TypeDiscoverCFRTitles, testBaseURL + "/cfr/text", prioritySeed},
		{TypeDiscoverSupremeCourtCases, testBaseURL + "/supremecourt/text/topic", priorityCaseListing},
		{TypeDiscoverSupremeCourtCases, testBaseURL + "/supremecourt/text/author", priorityCaseListing},
		{TypeDiscoverSupremeCourtCases, testBaseURL + "/supremecourt/text/party", priorityCaseListing},
		{TypeDiscoverConstitution, testBaseURL + "/constitution", prioritySeed},
		{TypeDiscoverFederalRules, testBaseURL + "/rules", prioritySeed},
	}, got)
}

func TestSeed_Subset(t *testing.T) {
	enq := &fakeEnqueuer{}

	created, err := Seed(context.Background(), enq, testBaseURL,
		[]string{ContentUSCode, ContentFederalRules}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.Len(t, enq.reqs, 2)
	assert.Equal(t, TypeDiscoverUSCodeTitles, enq.reqs[0].JobType)
	assert.Equal(t, TypeDiscoverFederalRules, enq.reqs[1].JobType)
}

func TestSeed_CaseInsensitive(t *testing.T) {
	enq := &fakeEnqueuer{}

	created, err := Seed(context.Background(), enq, testBaseURL, []string{"USCode"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestSeed_AlreadySeeded(t *testing.T) {
	enq := &fakeEnqueuer{existing: true}

	created, err := Seed(context.Background(), enq, testBaseURL, []string{ContentAll}, testLogger())
	require.NoError(t, err)

	// Everything was enqueued before, so nothing counts as created.
	assert.Equal(t, 0, created)
	assert.Len(t, enq.reqs, 7)
}

func TestSeed_EnqueueError(t *testing.T) {
	enq := &fakeEnqueuer{err: assert.AnError}

	created, err := Seed(context.Background(), enq, testBaseURL, []string{ContentCFR}, testLogger())
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, created)
}

func TestSeed_NothingRequested(t *testing.T) {
	enq := &fakeEnqueuer{}

	created, err := Seed(context.Background(), enq, testBaseURL, nil, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Empty(t, enq.reqs)
}
