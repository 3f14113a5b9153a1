package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/pkg/logger"
)

// reminderProcessor matches AppointmentService.SendDueReminders.
type reminderProcessor interface {
	SendDueReminders(ctx context.Context) ([]domain.SendResult, error)
}

// Scheduler runs the appointment reminder sweep on a fixed interval.
type Scheduler struct {
	processor       reminderProcessor
	interval        time.Duration
	alertWebhook    string
	alertThreshold  int // consecutive all-fail runs before alerting
	alertClient     *resty.Client
	lastAlertSentAt time.Time

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt     time.Time
	remindersSent int64
	runsCount     int64

	consecutiveAllFailCount int
}

func NewScheduler(processor reminderProcessor, interval time.Duration, alert environments.AlertConfig) *Scheduler {
	return &Scheduler{
		processor:      processor,
		interval:       interval,
		alertWebhook:   alert.WebhookURL,
		alertThreshold: alert.IterationCount,
		alertClient:    resty.New().SetTimeout(10 * time.Second),
	}
}

// StartWithInterval overrides the sweep interval and starts the loop.
func (s *Scheduler) StartWithInterval(ctx context.Context, intervalMinutes int) error {
	if intervalMinutes > 0 {
		s.mu.Lock()
		s.interval = time.Duration(intervalMinutes) * time.Minute
		s.consecutiveAllFailCount = 0
		s.mu.Unlock()
	}

	return s.Start(ctx)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Reminder scheduler is already running")
		return nil
	}

	if s.interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("invalid scheduler interval: %v", s.interval)
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	interval := s.interval
	s.mu.Unlock()

	logger.Infof("Starting reminder scheduler with interval: %v", interval)

	go s.run(ctx, interval)

	return nil
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer close(s.doneChan)

	s.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
			logger.Debugf("Next reminder sweep in %v", interval)

		case <-s.stopChan:
			logger.Warnf("Reminder scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Reminder scheduler context cancelled")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	s.mu.Unlock()

	results, err := s.processor.SendDueReminders(ctx)
	if err != nil {
		logger.Errorf("[Run #%d] Reminder sweep failed: %v", runNumber, err)
		return
	}

	if len(results) == 0 {
		logger.Debugf("[Run #%d] No reminders due", runNumber)
		return
	}

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}

	s.mu.Lock()
	s.remindersSent += int64(successCount)

	if successCount == 0 {
		s.consecutiveAllFailCount++
		failures := s.consecutiveAllFailCount
		logger.Warnf("[Run #%d] All %d reminders failed (consecutive count: %d/%d)",
			runNumber, len(results), failures, s.alertThreshold)

		if s.alertThreshold > 0 && failures >= s.alertThreshold && s.alertWebhook != "" {
			go s.sendAlert(s.alertWebhook, runNumber, failures, len(results))
		}
	} else {
		s.consecutiveAllFailCount = 0
	}
	s.mu.Unlock()

	logger.Infof("[Run #%d] Processed %d reminders, %d successful, %d failed",
		runNumber, len(results), successCount, len(results)-successCount)
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Reminder scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Reminder scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:                 s.running,
		LastRunAt:               s.lastRunAt,
		RemindersSent:           s.remindersSent,
		RunsCount:               s.runsCount,
		Interval:                s.interval.String(),
		ConsecutiveAllFailCount: s.consecutiveAllFailCount,
		LastAlertSentAt:         s.lastAlertSentAt,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

func (s *Scheduler) sendAlert(webhookURL string, runNumber int64, consecutiveFailures, remindersInRun int) {
	payload := map[string]any{
		"alert":               "reminders_consecutive_all_fail",
		"runNumber":           runNumber,
		"consecutiveFailures": consecutiveFailures,
		"remindersInRun":      remindersInRun,
		"timestamp":           time.Now().Format(time.RFC3339),
		"message": fmt.Sprintf(
			"All %d reminders failed for %d consecutive runs",
			remindersInRun,
			consecutiveFailures,
		),
	}

	resp, err := s.alertClient.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(webhookURL)
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	if !resp.IsSuccess() {
		logger.Warnf("Alert webhook returned status %d", resp.StatusCode())
		return
	}

	s.mu.Lock()
	s.lastAlertSentAt = time.Now()
	s.mu.Unlock()

	logger.Infof("Alert sent (consecutive failures: %d)", consecutiveFailures)
}

type SchedulerStatus struct {
	Running                 bool      `json:"running"`
	LastRunAt               time.Time `json:"lastRunAt,omitempty"`
	NextRunAt               time.Time `json:"nextRunAt,omitempty"`
	RemindersSent           int64     `json:"remindersSent"`
	RunsCount               int64     `json:"runsCount"`
	Interval                string    `json:"interval"`
	ConsecutiveAllFailCount int       `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time `json:"lastAlertSentAt,omitempty"`
}
