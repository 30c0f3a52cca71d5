package refresh

import "github.com/go-co-op/gocron"

// StartMinuteTick registers a job that raises sig on every minute boundary,
// an independent clock source for the consumer: the rendered time-of-day
// advances even when no feed publishes anything.
func StartMinuteTick(s *gocron.Scheduler, sig *Signal) error {
	_, err := s.Cron("* * * * *").Do(sig.Raise)
	return err
}
