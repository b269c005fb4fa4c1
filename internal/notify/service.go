package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"adnexus/internal/logger"
	"adnexus/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"

	maxTries = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues advertiser emails through Redis and drains the queue from a
// background worker. Sending is always best effort; callers treat a queue
// failure as a log line, not an API error.
type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, notifType, subject, body string) error {
	job := Job{
		To:      to,
		Name:    name,
		Type:    notifType,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue %s notification to %s: %v", notifType, to, err)
		metrics.RecordNotification(notifType, "queue_error")
		return err
	}

	logger.Infof("Notification queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending %s notification to %s (attempt %d)", job.Type, job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send notification to %s: %v", job.To, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying notification to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Notification to %s failed after %d attempts", job.To, maxTries)
			metrics.RecordNotification(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Infof("Notification sent to %s", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Notification moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendDepositReceipt(ctx context.Context, email, name string, amount decimal.Decimal) error {
	subject := "Credits Added - $" + amount.StringFixed(2)
	body := fmt.Sprintf(`Hi %s,

We've added $%s in credits to your wallet.

Your active campaigns keep serving as long as your balance covers their daily budgets.

- Adnexus Team`, name, amount.StringFixed(2))

	return s.Send(ctx, email, name, "deposit_receipt", subject, body)
}

func (s *Service) SendLowBalanceWarning(ctx context.Context, email, name string, balance decimal.Decimal) error {
	subject := "Low Credits Warning"
	body := fmt.Sprintf(`Hi %s,

Your credits balance has dropped to $%s.

Active campaigns pause automatically when your balance can no longer cover a day of spend. Add credits to keep them running.

- Adnexus Team`, name, balance.StringFixed(2))

	return s.Send(ctx, email, name, "low_balance", subject, body)
}

func (s *Service) SendCampaignPaused(ctx context.Context, email, name, campaignName string) error {
	subject := "Campaign Paused - " + campaignName
	body := fmt.Sprintf(`Hi %s,

Your campaign "%s" has been paused and is no longer serving ads.

You can reactivate it any time from your dashboard.

- Adnexus Team`, name, campaignName)

	return s.Send(ctx, email, name, "campaign_paused", subject, body)
}
