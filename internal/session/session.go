// Package session ties the library to the two recompute pipelines that
// feed the result list.
//
// The aggregate pipeline snapshots the distinct videos of the whole library
// and of the selected playlists whenever the library changes. Each published
// aggregate marks the results pipeline dirty, which filters, scores and
// sorts the right snapshot with the current query. Interactive callers only
// read the latest published values and set query fields.
package session

import (
	"context"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"video-shelf/internal/database"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/pipeline"
	"video-shelf/internal/search"
)

// Aggregate is the published library snapshot.
type Aggregate struct {
	All         []*library.Video
	Selected    []*library.Video
	AnySelected bool
	Stats       library.Stats

	byURL         map[string]*library.Video
	thumbnailURLs map[string]struct{}
}

func newAggregate(all, selected []*library.Video, anySelected bool, stats library.Stats) *Aggregate {
	a := &Aggregate{
		All:           all,
		Selected:      selected,
		AnySelected:   anySelected,
		Stats:         stats,
		byURL:         make(map[string]*library.Video, len(all)),
		thumbnailURLs: make(map[string]struct{}),
	}
	for _, v := range all {
		a.byURL[v.URL()] = v
		if v.ThumbnailURL != "" {
			a.thumbnailURLs[v.ThumbnailURL] = struct{}{}
		}
	}
	return a
}

// Video returns the library video with the given URL.
func (a *Aggregate) Video(url string) (*library.Video, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.byURL[url]
	return v, ok
}

// KnownThumbnailURL reports whether url is the remote thumbnail of a
// library video.
func (a *Aggregate) KnownThumbnailURL(url string) bool {
	if a == nil {
		return false
	}
	_, ok := a.thumbnailURLs[url]
	return ok
}

// Candidates returns the videos searched: the selected ones when any
// playlist is selected, otherwise the whole library.
func (a *Aggregate) Candidates() []*library.Video {
	if a == nil {
		return nil
	}
	if a.AnySelected {
		return a.Selected
	}
	return a.All
}

// Results is the published result list.
type Results struct {
	Items      []search.Result
	Query      search.Query
	Order      search.Order
	Candidates int
}

// Store persists settings, the selection and library statistics.
type Store interface {
	LoadSettings(ctx context.Context) (database.Settings, error)
	SaveSettings(ctx context.Context, s database.Settings) error
	LoadSelection(ctx context.Context) ([]string, error)
	SaveSelection(ctx context.Context, paths []string) error
	SaveLibraryStats(ctx context.Context, s database.LibraryStats) error
}

// Options configures a Session.
type Options struct {
	// Submit runs recomputes and persistence. Nil runs them on their own
	// goroutines.
	Submit pipeline.Submitter
	// Store is optional.
	Store Store
	// Sensitivity and Order apply when the store has no saved value. A nil
	// Sensitivity means search.DefaultSensitivity.
	Sensitivity *float64
	Order       search.Order
	// Workers bounds the search goroutines. Zero uses one per CPU.
	Workers  int
	Language language.Tag
}

// Session owns the query state and the aggregate and results pipelines.
type Session struct {
	lib    *library.Library
	store  Store
	submit pipeline.Submitter
	log    logging.Logger

	workers  int
	language language.Tag

	query       atomic.Pointer[search.Query]
	order       atomic.Int32
	sensitivity atomic.Uint64

	aggregate *pipeline.Pipeline[*Aggregate]
	results   *pipeline.Pipeline[*Results]

	// savedSelection is only touched by aggregate runs, which never overlap.
	savedSelection []string
}

// New creates a session over lib, restoring settings and the selection
// from the store when one is configured.
func New(ctx context.Context, lib *library.Library, opts Options) *Session {
	s := &Session{
		lib:      lib,
		store:    opts.Store,
		submit:   opts.Submit,
		log:      logging.For("session"),
		workers:  opts.Workers,
		language: opts.Language,
	}

	sensitivity := search.DefaultSensitivity
	if opts.Sensitivity != nil {
		sensitivity = *opts.Sensitivity
	}
	order := opts.Order
	s.restore(ctx, &sensitivity, &order)

	s.query.Store(&search.Query{})
	s.order.Store(int32(order))
	s.sensitivity.Store(math.Float64bits(search.ClampSensitivity(sensitivity)))

	s.aggregate = pipeline.New("aggregate", s.computeAggregate, opts.Submit)
	s.results = pipeline.New("results", s.computeResults, opts.Submit)
	s.aggregate.OnPublish(func(*Aggregate) { s.results.MarkDirty() })

	lib.OnChange(s.aggregate.MarkDirty)
	s.aggregate.MarkDirty()
	return s
}

func (s *Session) restore(ctx context.Context, sensitivity *float64, order *search.Order) {
	if s.store == nil {
		return
	}

	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		s.log.Warn("Failed to load settings: %v", err)
	}
	if settings.Sensitivity != nil {
		*sensitivity = *settings.Sensitivity
	}
	if settings.SortOrder != "" {
		if o, err := search.ParseOrder(settings.SortOrder); err == nil {
			*order = o
		} else {
			s.log.Warn("Ignoring stored sort order: %v", err)
		}
	}

	paths, err := s.store.LoadSelection(ctx)
	if err != nil {
		s.log.Warn("Failed to load selection: %v", err)
		return
	}
	var selected []*library.Playlist
	for _, path := range paths {
		p, err := s.lib.FindPlaylist(path)
		if err != nil {
			s.log.Debug("Selected playlist %s no longer exists", path)
			continue
		}
		selected = append(selected, p)
	}
	s.lib.SetSelection(selected)
	s.savedSelection = paths
	if len(selected) > 0 {
		s.log.Info("Restored selection of %d playlists", len(selected))
	}
}

func (s *Session) computeAggregate(ctx context.Context) (*Aggregate, error) {
	selected := s.lib.Selected()
	agg := newAggregate(s.lib.AllVideos(), s.lib.SelectedVideos(), len(selected) > 0, s.lib.Stats())
	s.persistAggregate(ctx, agg, selected)
	return agg, nil
}

// persistAggregate writes the statistics snapshot and, when it changed, the
// selection. Failures are logged and do not fail the aggregation.
func (s *Session) persistAggregate(ctx context.Context, agg *Aggregate, selected []*library.Playlist) {
	if s.store == nil {
		return
	}

	st := agg.Stats
	err := s.store.SaveLibraryStats(ctx, database.LibraryStats{
		Folders:   st.Folders,
		Playlists: st.Playlists,
		Videos:    st.Videos,
		Stored:    st.Stored,
		Selected:  st.Selected,
		Dirty:     st.Dirty,
	})
	if err != nil {
		s.log.Warn("Failed to save library stats: %v", err)
	}

	paths := make([]string, len(selected))
	for i, p := range selected {
		paths[i] = p.RelPath()
	}
	if slices.Equal(paths, s.savedSelection) {
		return
	}
	if err := s.store.SaveSelection(ctx, paths); err != nil {
		s.log.Warn("Failed to save selection: %v", err)
		return
	}
	s.savedSelection = paths
}

func (s *Session) computeResults(ctx context.Context) (*Results, error) {
	agg := s.aggregate.Latest()
	q := s.Query()
	order := s.Order()

	videos := agg.Candidates()
	items, err := search.Run(ctx, videos, q, order, search.Options{
		Sensitivity: s.Sensitivity(),
		Workers:     s.workers,
		Language:    s.language,
	})
	if err != nil {
		return nil, err
	}
	return &Results{Items: items, Query: q, Order: order, Candidates: len(videos)}, nil
}

// Query returns the current query.
func (s *Session) Query() search.Query {
	return *s.query.Load()
}

// SetQuery replaces the query and requests new results.
func (s *Session) SetQuery(q search.Query) {
	s.query.Store(&q)
	s.results.MarkDirty()
}

// Order returns the current sort order.
func (s *Session) Order() search.Order {
	return search.Order(s.order.Load())
}

// SetOrder changes the sort order, requests new results and saves the
// order in the background.
func (s *Session) SetOrder(o search.Order) {
	if int(o) < 0 || int(o) >= len(search.Orders) {
		return
	}
	if search.Order(s.order.Swap(int32(o))) == o {
		return
	}
	s.results.MarkDirty()
	s.persistSettings(database.Settings{SortOrder: o.String()})
}

// Sensitivity returns the fuzzy title threshold.
func (s *Session) Sensitivity() float64 {
	return math.Float64frombits(s.sensitivity.Load())
}

// SetSensitivity changes the fuzzy title threshold, clamped to [0, 1].
func (s *Session) SetSensitivity(v float64) {
	v = search.ClampSensitivity(v)
	if math.Float64frombits(s.sensitivity.Swap(math.Float64bits(v))) == v {
		return
	}
	s.results.MarkDirty()
	s.persistSettings(database.Settings{Sensitivity: &v})
}

func (s *Session) persistSettings(settings database.Settings) {
	if s.store == nil {
		return
	}
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.SaveSettings(ctx, settings); err != nil {
			s.log.Warn("Failed to save settings: %v", err)
		}
	}
	if s.submit != nil && s.submit.TrySubmit(job) {
		return
	}
	go job()
}

// Aggregate returns the latest library snapshot, or nil before the first
// aggregation.
func (s *Session) Aggregate() *Aggregate {
	return s.aggregate.Latest()
}

// Results returns the latest result list, or nil before the first search.
func (s *Session) Results() *Results {
	return s.results.Latest()
}

// ResultsGeneration counts published result lists.
func (s *Session) ResultsGeneration() uint64 {
	return s.results.Generation()
}

// Refresh recomputes everything from the library.
func (s *Session) Refresh() {
	s.aggregate.MarkDirty()
}

// Start runs both pipeline schedulers until ctx is done.
func (s *Session) Start(ctx context.Context, interval time.Duration) {
	go s.aggregate.Run(ctx, interval)
	go s.results.Run(ctx, interval)
}

// Settle drives both pipelines until neither has pending work. It is used
// by one-shot commands and tests instead of Start.
func (s *Session) Settle(ctx context.Context) error {
	for {
		if err := s.aggregate.Settle(ctx); err != nil {
			return err
		}
		if err := s.results.Settle(ctx); err != nil {
			return err
		}
		if !s.aggregate.Dirty() && !s.aggregate.Running() {
			return nil
		}
	}
}

// Status describes both pipelines.
func (s *Session) Status() []pipeline.Status {
	return []pipeline.Status{s.aggregate.Status(), s.results.Status()}
}
