package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/gommon/log"
)

// Scheduler owns the background jobs of the process.
type Scheduler struct {
	scheduler gocron.Scheduler
	reminder  *FollowUpReminder
}

func NewScheduler(reminder *FollowUpReminder) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{scheduler: scheduler, reminder: reminder}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	// Follow-up reminders go out once, at the start of the working day.
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(8, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := s.reminder.Run(ctx, time.Now()); err != nil {
				log.Errorf("follow-up reminder run failed: %v", err)
			}
		}),
		gocron.WithName("follow-up-reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) Start() {
	log.Info("starting background job scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	log.Info("stopping background job scheduler")
	return s.scheduler.Shutdown()
}
