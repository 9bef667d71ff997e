// Package pageexport retrieves the rendered content of a Coda page.
//
// Coda renders pages asynchronously: a run initiates an HTML export, polls
// the job until it reaches a terminal status or the attempt budget runs out,
// then downloads the result from a trusted host and pairs it with the page
// name. Every unsuccessful run ends in an *Error whose Kind says why.
package pageexport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/coda-mcp/internal/coda"
	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/metrics"
)

// ErrMissingID is returned when a doc or page identifier is empty.
var ErrMissingID = errors.New("pageexport: doc and page IDs are required")

// API is the subset of the Coda client a run needs.
type API interface {
	StartPageExport(ctx context.Context, docID, pageID string, req coda.ExportRequest) (*coda.ExportStatus, error)
	GetPageExport(ctx context.Context, docID, pageID, exportID string) (*coda.ExportStatus, error)
	GetPage(ctx context.Context, docID, pageID string) (*coda.Page, error)
	DownloadRaw(ctx context.Context, rawURL string, check coda.RedirectCheck) ([]byte, error)
}

var _ API = (*coda.Client)(nil)

// RenderedPage is the result of a successful run.
type RenderedPage struct {
	PageID   string
	PageName string
	Content  string
	ExportID string
	// Attempts is the number of status polls the run issued.
	Attempts int
}

// Request identifies the page to export.
type Request struct {
	DocID  string
	PageID string
	// OnEvent, if set, receives every transition of this run in order.
	OnEvent func(Event)
}

// Exporter runs page exports against one API.
type Exporter struct {
	api      API
	cfg      Config
	log      logger.Logger
	metrics  *metrics.Metrics
	observer func(Event)
	newRunID func() string
	sleep    func(context.Context, time.Duration) error

	// maxContent caps the inflated size of a download.
	maxContent int64
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		e.log = l
	}
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// WithObserver registers fn to receive the events of every run, in addition
// to any per-request OnEvent.
func WithObserver(fn func(Event)) Option {
	return func(e *Exporter) {
		e.observer = fn
	}
}

// New returns an Exporter. It fails if cfg does not validate.
func New(api API, cfg Config, opts ...Option) (*Exporter, error) {
	if api == nil {
		return nil, errors.New("pageexport: api is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pageexport: invalid config: %w", err)
	}
	e := &Exporter{
		api:        api,
		cfg:        cfg,
		log:        logger.NewNop(),
		newRunID:   uuid.NewString,
		sleep:      sleepContext,
		maxContent: DefaultMaxContentBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the poll budget in use.
func (e *Exporter) Config() Config {
	return e.cfg
}

// ExportPage runs one export of pageID in docID.
func (e *Exporter) ExportPage(ctx context.Context, docID, pageID string) (*RenderedPage, error) {
	return e.Export(ctx, Request{DocID: docID, PageID: pageID})
}

// Export runs one export. Runs share nothing, so any number may proceed
// concurrently on the same Exporter.
func (e *Exporter) Export(ctx context.Context, req Request) (*RenderedPage, error) {
	if req.DocID == "" || req.PageID == "" {
		return nil, ErrMissingID
	}
	r := &run{
		Exporter: e,
		req:      req,
		id:       e.newRunID(),
	}
	r.log = e.log.With(
		logger.String("run_id", r.id),
		logger.String("doc_id", req.DocID),
		logger.String("page_id", req.PageID),
	)

	page, err := r.execute(ctx)
	if err != nil {
		state := stateFor(err)
		r.emit(Event{State: state, Err: err})
		e.metrics.ObserveExport(string(state), r.attempts)
		r.log.Warn("Page export did not complete",
			logger.String("state", string(state)),
			logger.Int("attempts", r.attempts),
			logger.Error(err),
		)
		return nil, err
	}
	r.emit(Event{State: StateComplete})
	e.metrics.ObserveExport(string(StateComplete), r.attempts)
	r.log.Info("Page export complete",
		logger.Int("attempts", r.attempts),
		logger.Int("content_bytes", len(page.Content)),
	)
	return page, nil
}

// run holds the state of a single export.
type run struct {
	*Exporter
	req      Request
	id       string
	log      logger.Logger
	attempts int
}

func (r *run) emit(ev Event) {
	ev.RunID = r.id
	ev.DocID = r.req.DocID
	ev.PageID = r.req.PageID
	ev.MaxAttempts = r.cfg.MaxPollAttempts
	if r.req.OnEvent != nil {
		r.req.OnEvent(ev)
	}
	if r.observer != nil {
		r.observer(ev)
	}
}

func (r *run) execute(ctx context.Context) (*RenderedPage, error) {
	r.emit(Event{State: StateInitiating})
	job, err := r.api.StartPageExport(ctx, r.req.DocID, r.req.PageID, coda.ExportRequest{
		OutputFormat: coda.OutputFormatHTML,
	})
	if err != nil {
		return nil, transportError("initiate", err)
	}
	r.log.Info("Page export initiated",
		logger.String("export_id", job.ID),
		logger.String("status", job.Status),
	)

	for attempt := 1; attempt <= r.cfg.MaxPollAttempts; attempt++ {
		r.attempts = attempt
		status, err := r.api.GetPageExport(ctx, r.req.DocID, r.req.PageID, job.ID)
		if err != nil {
			return nil, transportError("poll", err)
		}
		r.emit(Event{State: StatePolling, Attempt: attempt, RemoteStatus: status.Status})
		r.log.Debug("Polled page export",
			logger.Int("attempt", attempt),
			logger.String("status", status.Status),
		)

		switch status.Phase() {
		case coda.PhaseComplete:
			return r.collect(ctx, job.ID, status)
		case coda.PhaseFailed:
			msg := status.Error
			if msg == "" {
				msg = unknownRemoteError
			}
			return nil, &Error{Kind: KindRemoteFailed, Op: "poll", Message: msg}
		}

		if attempt < r.cfg.MaxPollAttempts {
			if err := r.sleep(ctx, r.cfg.PollInterval); err != nil {
				return nil, transportError("poll", err)
			}
		}
	}
	return nil, &Error{Kind: KindTimedOut, Op: "poll", Elapsed: r.cfg.Budget()}
}

// collect downloads the finished export and fetches the page name. Both
// requests start only after the link has passed the host check, and every
// redirect of the download must pass it too.
func (r *run) collect(ctx context.Context, exportID string, status *coda.ExportStatus) (*RenderedPage, error) {
	link := status.DownloadLink
	if link == "" {
		return nil, &Error{Kind: KindNoDownloadLink, Op: "download"}
	}
	if err := checkDownloadURL(link); err != nil {
		return nil, err
	}

	var (
		content string
		page    *coda.Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.api.DownloadRaw(gctx, link, checkDownloadTarget)
		if err != nil {
			// A redirect hop rejected by checkDownloadTarget keeps its own kind.
			var hopErr *Error
			if errors.As(err, &hopErr) {
				return hopErr
			}
			return transportError("download", err)
		}
		text, err := decodeContent(data, r.maxContent)
		if err != nil {
			return &Error{Kind: KindDecompressFailed, Op: "download", Err: err}
		}
		content = text
		return nil
	})
	g.Go(func() error {
		p, err := r.api.GetPage(gctx, r.req.DocID, r.req.PageID)
		if err != nil {
			return transportError("page metadata", err)
		}
		page = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var name string
	if page != nil {
		name = page.Name
	}
	return &RenderedPage{
		PageID:   r.req.PageID,
		PageName: name,
		Content:  content,
		ExportID: exportID,
		Attempts: r.attempts,
	}, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Format renders a page the way tools present it to agents.
func (p *RenderedPage) Format() string {
	return fmt.Sprintf("Page: %s\n\nContent:\n%s", p.PageName, p.Content)
}
