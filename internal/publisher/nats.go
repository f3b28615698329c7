package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sourcegraph/conc/pool"

	"ferryboard/internal/gtfs"
	"ferryboard/internal/logging"
	"ferryboard/internal/models"
	"ferryboard/internal/schedule"
)

const maxConcurrentPublishes = 4

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher sends departure boards to NATS, one subject per board.
type NATSPublisher struct {
	nc      conn
	prefix  string
	logger  *slog.Logger
	metrics PublisherMetrics
}

func NewNATSPublisher(url, prefix string, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "nats_publisher"))

	setConnected := func(connected bool) {
		if m != nil {
			m.NATSSetConnected(connected)
		}
	}

	nc, err := nats.Connect(url,
		nats.Name("ferryboard"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			setConnected(false)
			logger.Warn("nats disconnected", slog.String("error", errorText(err)))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			setConnected(true)
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			setConnected(false)
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	setConnected(true)

	return newPublisher(nc, prefix, logger, m), nil
}

func newPublisher(nc conn, prefix string, logger *slog.Logger, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logging.LogError(p.logger, "failed to drain nats connection", err)
	}
	p.nc.Close()
}

// Subject is the subject a board is published on: <prefix>.<name>, or
// <prefix>.<route>.<direction>.<stop> for unnamed boards.
func (p *NATSPublisher) Subject(board models.DepartureBoard) string {
	tokens := []string{p.prefix}
	if board.Name != "" {
		tokens = append(tokens, subjectToken(board.Name))
	} else {
		tokens = append(tokens, subjectToken(board.RouteID), subjectToken(board.DirectionID), subjectToken(board.StopID))
	}
	return strings.Join(tokens, ".")
}

func (p *NATSPublisher) PublishBoard(board models.DepartureBoard) error {
	subject := p.Subject(board)
	b, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode board %q: %w", subject, err)
	}

	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("board published", slog.String("subject", subject), slog.Int("departures", len(board.Departures)))
	return nil
}

// PublishBoards publishes every board and joins the errors of those that failed.
func (p *NATSPublisher) PublishBoards(ctx context.Context, boards []models.DepartureBoard) error {
	workers := pool.New().WithMaxGoroutines(maxConcurrentPublishes).WithErrors()
	for _, board := range boards {
		workers.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.PublishBoard(board)
		})
	}
	return workers.Wait()
}

// BuildBoards computes the board of every target against snapshot at now.
func BuildBoards(snapshot *schedule.Snapshot, targets []schedule.Target, now time.Time) []models.DepartureBoard {
	if snapshot == nil {
		return nil
	}
	loc := snapshot.Location
	if loc == nil {
		loc = now.Location()
	}
	now = now.In(loc)

	builders := pool.NewWithResults[models.DepartureBoard]().WithMaxGoroutines(maxConcurrentPublishes)
	for _, target := range targets {
		builders.Go(func() models.DepartureBoard {
			return models.NewDepartureBoard(target, schedule.RemainingStops(snapshot, target, now), loc, now)
		})
	}
	boards := builders.Wait()

	order := make(map[string]int, len(targets))
	for i, target := range targets {
		order[target.Name] = i
	}
	sort.SliceStable(boards, func(i, j int) bool { return order[boards[i].Name] < order[boards[j].Name] })
	return boards
}

// RefreshHook publishes the boards of targets after every scheduler refresh.
// Failures are logged and never stop the scheduler.
func (p *NATSPublisher) RefreshHook(targets []schedule.Target, clock func() time.Time) gtfs.RefreshHook {
	if clock == nil {
		clock = time.Now
	}
	return func(ctx context.Context, snapshot *schedule.Snapshot) {
		boards := BuildBoards(snapshot, targets, clock())
		if err := p.PublishBoards(ctx, boards); err != nil {
			logging.LogError(logging.FromContextOr(ctx, p.logger), "failed to publish departure boards", err,
				slog.Int("boards", len(boards)))
		}
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain whitespace, '.', '>' or '*'.
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
