package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/metrics"
	"github.com/tocafy/tocafy-server/internal/model"
	"github.com/tocafy/tocafy-server/internal/notify"
	"github.com/tocafy/tocafy-server/internal/repository"
)

const (
	defaultOpTimeout = 5 * time.Second
	publishTimeout   = 5 * time.Second
)

// Options configures New.  DB and Dialect are required; the rest have
// usable defaults.
type Options struct {
	DB        *sql.DB
	Dialect   repository.Dialect
	Publisher notify.Publisher // defaults to notify.Nop
	Logger    *logger.Logger   // defaults to a discarding logger
	OpTimeout time.Duration    // bound on every operation, lock wait included
	Clock     func() time.Time // defaults to time.Now
}

// Services groups the four services.  They share one lock table, so show
// and queue operations on the same show exclude each other.
type Services struct {
	Shows      *ShowService
	Queue      *QueueService
	Songs      *SongService
	Moderation *ModerationService
}

// New wires the services around one database.
func New(opts Options) *Services {
	if opts.DB == nil {
		panic("service: nil DB")
	}
	c := &core{
		db:       opts.DB,
		shows:    repository.NewShowRepo(opts.Dialect),
		requests: repository.NewRequestRepo(opts.Dialect),
		songs:    repository.NewSongRepo(),
		settings: repository.NewModerationRepo(opts.Dialect),
		locks:    newShowLocks(),
		pub:      opts.Publisher,
		log:      opts.Logger,
		timeout:  opts.OpTimeout,
		clock:    opts.Clock,
	}
	if c.pub == nil {
		c.pub = notify.Nop{}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	if c.timeout <= 0 {
		c.timeout = defaultOpTimeout
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return &Services{
		Shows:      &ShowService{c},
		Queue:      &QueueService{c},
		Songs:      &SongService{c},
		Moderation: &ModerationService{c},
	}
}

// core holds what every service needs: repositories, the per-show lock
// table and the event publisher.
type core struct {
	db       *sql.DB
	shows    *repository.ShowRepo
	requests *repository.RequestRepo
	songs    *repository.SongRepo
	settings *repository.ModerationRepo
	locks    *showLocks
	pub      notify.Publisher
	log      *logger.Logger
	timeout  time.Duration
	clock    func() time.Time
}

// now is the timestamp written to the database: UTC, truncated to what
// DATETIME(6) keeps.
func (c *core) now() time.Time {
	return c.clock().UTC().Truncate(time.Microsecond)
}

// bounded applies the operation timeout and records the duration.
func (c *core) bounded(ctx context.Context, op string) (context.Context, func()) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	start := time.Now()
	return ctx, func() {
		cancel()
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// inTx runs fn in a transaction and commits when it returns nil.
func (c *core) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

// inShow runs fn inside the show's exclusion scope: the process-local show
// lock, a transaction and the show row locked for that transaction.  It is
// the only way show status and queue positions are mutated.
func (c *core) inShow(ctx context.Context, showID string, fn func(tx *sql.Tx, show *model.Show) error) error {
	release, err := c.locks.acquire(ctx, showID)
	if err != nil {
		return err
	}
	defer release()

	return c.inTx(ctx, func(tx *sql.Tx) error {
		show, err := c.shows.GetForUpdate(ctx, tx, showID)
		if err != nil {
			return err
		}
		return fn(tx, show)
	})
}

// emit publishes events for a committed operation.  Delivery failures are
// logged and dropped; the caller's cancellation does not abort delivery.
func (c *core) emit(ctx context.Context, events []model.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, ev := range events {
		if err := c.pub.Publish(pctx, ev); err != nil {
			c.log.Warn("change event not delivered",
				"entity", ev.Entity, "id", ev.ID, "show_id", ev.ShowID, "state", ev.NewState, "error", err)
		}
	}
}

// recompute renumbers the show's active requests 1..N in submission order
// and returns the ones whose position changed.
func (c *core) recompute(ctx context.Context, tx *sql.Tx, showID string, now time.Time) ([]*model.SongRequest, error) {
	active, err := c.requests.ListActive(ctx, tx, showID)
	if err != nil {
		return nil, err
	}
	var changed []*model.SongRequest
	for i, r := range active {
		want := i + 1
		if r.Position != nil && *r.Position == want {
			continue
		}
		if err := c.requests.SetPosition(ctx, tx, r.ID, &want, now); err != nil {
			return nil, err
		}
		r.Position = &want
		r.UpdatedAt = now
		changed = append(changed, r)
	}
	return changed, nil
}
