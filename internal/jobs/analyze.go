package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

// AnalyzeOptions configures Analyze.
type AnalyzeOptions struct {
	BatchSize int
	Limit     int    // 0 = no limit
	Ticker    string // only this ticker when set
	Force     bool   // re-analyse articles that already have a label
	Delay     time.Duration
}

// AnalyzeResult summarises an Analyze run.
type AnalyzeResult struct {
	Found     int
	Processed int
	Analyzed  int
	Updated   int // label differed from the stored one
	Skipped   int // empty text
	Errors    int
	Snapshots int // daily sentiment history rows written

	Distribution store.SentimentCounts
}

// Analyze classifies articles that lack a label (or all of them with
// Force), then records a daily sentiment snapshot for every ticker and
// publication day touched.
func (r *Runner) Analyze(ctx context.Context, opts AnalyzeOptions) (AnalyzeResult, error) {
	var res AnalyzeResult
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	db := r.svc.DB()
	analyzer := r.svc.Analyzer()
	ticker := strings.ToUpper(strings.TrimSpace(opts.Ticker))

	list, err := db.ListUnanalyzedNews(ticker, opts.Limit, opts.Force)
	if err != nil {
		return res, err
	}
	res.Found = len(list)
	if len(list) == 0 {
		return res, nil
	}
	r.printf("Analyzing %d article(s) with %s\n", len(list), analyzer.Name())

	touched := map[string]map[time.Time]bool{}
	batches := (len(list) + opts.BatchSize - 1) / opts.BatchSize
	for b := 0; b < batches; b++ {
		batch := list[b*opts.BatchSize : min((b+1)*opts.BatchSize, len(list))]
		r.printf("Batch %d/%d (%d articles)\n", b+1, batches, len(batch))

		for _, n := range batch {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Processed++

			if strings.TrimSpace(n.Title+" "+n.Content) == "" {
				res.Skipped++
				continue
			}
			label := string(r.svc.Classify(n))
			if err := db.SetNewsSentiment(n.ID, label); err != nil {
				res.Errors++
				r.log.Error().Err(err).Str("id", n.ID).Str("ticker", n.Ticker).Msg("store sentiment")
				continue
			}
			res.Analyzed++
			if n.Sentiment == nil || *n.Sentiment != label {
				res.Updated++
			}
			if touched[n.Ticker] == nil {
				touched[n.Ticker] = map[time.Time]bool{}
			}
			touched[n.Ticker][startOfDay(n.Date)] = true

			if err := r.pause(ctx, opts.Delay); err != nil {
				return res, err
			}
		}
	}

	if err := r.recordSnapshots(touched, &res); err != nil {
		return res, err
	}

	res.Distribution, err = db.SentimentDistribution()
	return res, err
}

// recordSnapshots stores the label counts of each touched ticker and day.
func (r *Runner) recordSnapshots(touched map[string]map[time.Time]bool, res *AnalyzeResult) error {
	db := r.svc.DB()
	for t, days := range touched {
		for day := range days {
			counts, err := db.SentimentCounts(t, day, day.AddDate(0, 0, 1), true)
			if err != nil {
				return err
			}
			if err := db.RecordSentimentHistory(store.SentimentSnapshot{Ticker: t, Date: day, SentimentCounts: counts}); err != nil {
				return err
			}
			res.Snapshots++
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
