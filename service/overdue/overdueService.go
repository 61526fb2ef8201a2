package overduesvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Repo interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper flags approved borrows whose due date has passed. It runs once at
// startup and then nightly.
type Sweeper struct {
	r   Repo
	log *slog.Logger
	c   *cron.Cron
}

func New(r Repo, log *slog.Logger) *Sweeper {
	return &Sweeper{r: r, log: log}
}

func (s *Sweeper) Run(ctx context.Context) {
	n, err := s.r.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("overdue sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.log.Info("overdue sweep", "flagged", n)
	}
}

// Start schedules the nightly run at midnight.
func (s *Sweeper) Start() {
	c := cron.New()
	c.AddFunc("0 0 * * *", func() { s.Run(context.Background()) })
	c.Start()
	s.c = c
}

func (s *Sweeper) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}
