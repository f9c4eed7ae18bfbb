package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
)

const userAgent = "Claimguard-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyAnalysisComplete(ctx context.Context, claimID string, triage claims.TriageClass, score float64) error
	NotifyInvestigation(ctx context.Context, claimID, summary string) error
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned. The
// per-category config flags suppress individual notification kinds without
// disabling the service.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		analysis:       cfg.Notifications.Analysis,
		investigations: cfg.Notifications.Investigations,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	analysis       bool
	investigations bool
	errors         bool
}

func (n *ntfyService) NotifyAnalysisComplete(ctx context.Context, claimID string, triage claims.TriageClass, score float64) error {
	if !n.analysis {
		return nil
	}
	claimID = strings.TrimSpace(claimID)
	data := payload{
		title:   "Claimguard - Claim Analyzed",
		message: fmt.Sprintf("Claim %s analyzed: %s (risk %.2f)", claimID, triage, score),
		tags:    []string{"claimguard", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInvestigation(ctx context.Context, claimID, summary string) error {
	if !n.investigations {
		return nil
	}
	claimID = strings.TrimSpace(claimID)
	message := fmt.Sprintf("🚨 Claim %s routed to investigation", claimID)
	if summary = strings.TrimSpace(summary); summary != "" {
		message = fmt.Sprintf("%s\n%s", message, summary)
	}
	data := payload{
		title:    "Claimguard - Investigation",
		message:  message,
		tags:     []string{"claimguard", "investigation", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	if !n.analysis {
		return nil
	}
	data := payload{
		title:   "Claimguard - Batch Started",
		message: fmt.Sprintf("Started analyzing %d pending claims", count),
		tags:    []string{"claimguard", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.analysis {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Claimguard - Batch Complete"
		message = fmt.Sprintf("✅ Batch complete: %d claims analyzed in %s", processed, durationText)
	} else {
		title = "Claimguard - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d analyzed, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"claimguard", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Claimguard - Error",
		message:  builder.String(),
		tags:     []string{"claimguard", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Claimguard - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"claimguard", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAnalysisComplete(context.Context, string, claims.TriageClass, float64) error {
	return nil
}
func (noopService) NotifyInvestigation(context.Context, string, string) error           { return nil }
func (noopService) NotifyBatchStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
