package search

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"video-shelf/internal/library"
	"video-shelf/internal/metrics"
	"video-shelf/internal/workers"
)

// minChunk is the smallest slice of videos handed to one filter goroutine.
const minChunk = 512

// Options tunes a search run.
type Options struct {
	// Sensitivity is the Jaro-Winkler similarity a title must exceed to
	// score. Values outside [0, 1] are clamped.
	Sensitivity float64
	// Workers bounds the filter goroutines. Zero uses workers.ForCPU.
	Workers int
	// Language selects the collation of title and uploader sorts.
	// Defaults to language.Und.
	Language language.Tag
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Sensitivity: DefaultSensitivity}
}

// Result is a video that passed the filters together with its title score.
// Score is zero when the query has no title text.
type Result struct {
	Video *library.Video
	Score float64
}

// filter is the compiled form of a Query.
type filter struct {
	uploader string
	duration DurationFilter
	hasDur   bool
	date     DateFilter
	hasDate  bool
	title    *titleMatcher
}

func compile(q Query, sensitivity float64) *filter {
	f := &filter{uploader: q.Uploader}
	f.duration, f.hasDur = ParseDurationFilter(q.Duration)
	f.date, f.hasDate = ParseDateFilter(q.Date)
	if q.Title != "" {
		f.title = newTitleMatcher(q.Title, sensitivity)
	}
	return f
}

// match applies the predicates in order and returns the title score.
func (f *filter) match(v *library.Video) (float64, bool) {
	if f.uploader != "" && !containsFold(v.UploaderName, f.uploader) {
		return 0, false
	}
	if f.hasDur && !f.duration.Match(v.Duration) {
		return 0, false
	}
	if f.hasDate && !f.date.Match(v.Uploaded) {
		return 0, false
	}
	if f.title == nil {
		return 0, true
	}
	score := f.title.Score(v.Title)
	return score, score > 0
}

// Run filters videos by q and sorts the survivors by order. The input slice
// is not modified. Run returns early with ctx's error when ctx is done.
func Run(ctx context.Context, videos []*library.Video, q Query, order Order, opts Options) ([]Result, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.SearchCandidates.Set(float64(len(videos)))

	results, err := filterAll(ctx, videos, compile(q, opts.Sensitivity), opts.Workers)
	if err != nil {
		return nil, err
	}
	Sort(results, order, q.Title != "", opts.Language)

	metrics.SearchResults.Set(float64(len(results)))
	return results, nil
}

// filterAll evaluates the filter over videos in parallel chunks and keeps
// the input order of the survivors.
func filterAll(ctx context.Context, videos []*library.Video, f *filter, n int) ([]Result, error) {
	if n <= 0 {
		n = workers.ForCPU(0)
	}
	chunk := (len(videos) + n - 1) / n
	if chunk < minChunk {
		chunk = minChunk
	}

	scores := make([]float64, len(videos))
	keep := make([]bool, len(videos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for lo := 0; lo < len(videos); lo += chunk {
		hi := min(lo+chunk, len(videos))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%minChunk == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				scores[i], keep[i] = f.match(videos[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(videos))
	for i, v := range videos {
		if keep[i] {
			results = append(results, Result{Video: v, Score: scores[i]})
		}
	}
	return results, nil
}

// Sort orders results in place with a stable sort. With scored set, the
// title orders sort by descending score instead of by title.
func Sort(results []Result, order Order, scored bool, lang language.Tag) {
	if (order == TitleAsc || order == TitleDesc) && scored {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
		return
	}

	var less func(a, b *library.Video) bool
	switch order {
	case TitleAsc, TitleDesc:
		c := collate.New(lang, collate.IgnoreCase)
		less = func(a, b *library.Video) bool { return c.CompareString(a.Title, b.Title) < 0 }
	case UploaderAsc, UploaderDesc:
		c := collate.New(lang, collate.IgnoreCase)
		less = func(a, b *library.Video) bool { return c.CompareString(a.UploaderName, b.UploaderName) < 0 }
	case DurationAsc, DurationDesc:
		less = func(a, b *library.Video) bool { return a.Duration < b.Duration }
	case DateAsc, DateDesc:
		less = func(a, b *library.Video) bool { return a.Uploaded.Before(b.Uploaded) }
	default:
		return
	}

	if order.Descending() {
		sort.SliceStable(results, func(i, j int) bool { return less(results[j].Video, results[i].Video) })
		return
	}
	sort.SliceStable(results, func(i, j int) bool { return less(results[i].Video, results[j].Video) })
}

// Videos strips the scores from results.
func Videos(results []Result) []*library.Video {
	out := make([]*library.Video, len(results))
	for i, r := range results {
		out[i] = r.Video
	}
	return out
}
