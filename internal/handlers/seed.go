package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lawvault/lawvault/internal/queue"
)

// Content type names accepted by Seed.
const (
	ContentAll          = "all"
	ContentUSCode       = "uscode"
	ContentCFR          = "cfr"
	ContentSupremeCourt = "scotus"
	ContentConstitution = "constitution"
	ContentFederalRules = "federal_rules"
)

// Enqueuer is the slice of the job queue that seeding needs
type Enqueuer interface {
	Enqueue(ctx context.Context, req queue.JobRequest) (int64, bool, error)
}

// Seed enqueues the top-level discovery jobs for the requested content
// types. Re-seeding is harmless: jobs that already exist are skipped, and
// the returned count covers newly created jobs only.
func Seed(ctx context.Context, store Enqueuer, baseURL string, contentTypes []string, logger *slog.Logger) (int, error) {
	want := map[string]bool{}
	for _, contentType := range contentTypes {
		want[strings.ToLower(contentType)] = true
	}
	all := want[ContentAll]

	baseURL = strings.TrimRight(baseURL, "/")

	created := 0
	enqueue := func(req queue.JobRequest) error {
		_, isNew, err := store.Enqueue(ctx, req)
		if err != nil {
			return err
		}
		if isNew {
			created++
		}
		return nil
	}

	if all || want[ContentUSCode] {
		if err := enqueue(queue.JobRequest{
			JobType:  TypeDiscoverUSCodeTitles,
			URL:      baseURL + "/uscode/text",
			Priority: prioritySeed,
		}); err != nil {
			return created, err
		}
		logger.Info("Seeded US Code discovery")
	}

	if all || want[ContentCFR] {
		if err := enqueue(queue.JobRequest{
			JobType:  TypeDiscoverCFRTitles,
			URL:      baseURL + "/cfr/text",
			Priority: prioritySeed,
		}); err != nil {
			return created, err
		}
		logger.Info("Seeded CFR discovery")
	}

	if all || want[ContentSupremeCourt] {
		// The case archive is browsable three ways; seeding all of them
		// widens coverage and duplicates collapse in the queue.
		for _, path := range []string{
			"/supremecourt/text/topic",
			"/supremecourt/text/author",
			"/supremecourt/text/party",
		} {
			if err := enqueue(queue.JobRequest{
				JobType:  TypeDiscoverSupremeCourtCases,
				URL:      baseURL + path,
				Priority: priorityCaseListing,
			}); err != nil {
				return created, err
			}
		}
		logger.Info("Seeded Supreme Court discovery")
	}

	if all || want[ContentConstitution] {
		if err := enqueue(queue.JobRequest{
			JobType:  TypeDiscoverConstitution,
			URL:      baseURL + "/constitution",
			Priority: prioritySeed,
		}); err != nil {
			return created, err
		}
		logger.Info("Seeded Constitution discovery")
	}

	if all || want[ContentFederalRules] {
		if err := enqueue(queue.JobRequest{
			JobType:  TypeDiscoverFederalRules,
			URL:      baseURL + "/rules",
			Priority: prioritySeed,
		}); err != nil {
			return created, err
		}
		logger.Info("Seeded Federal Rules discovery")
	}

	logger.Info("Seeding complete", slog.Int("jobs_created", created))
	return created, nil
}
