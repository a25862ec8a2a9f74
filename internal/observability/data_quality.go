package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/project-radar/internal/platform/ctxutil"
	"github.com/yungbote/project-radar/internal/platform/envutil"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

// PlacementReport summarises projects that a snapshot could not place.
type PlacementReport struct {
	Edition string
	Placed  int
	// Unplaced maps a reason to the external ids that carried it.
	Unplaced map[string][]string
}

func (r PlacementReport) total() int {
	n := 0
	for _, ids := range r.Unplaced {
		n += len(ids)
	}
	return n
}

type placementAlertState struct {
	mu   sync.Mutex
	last time.Time
}

var placementAlerts placementAlertState

// ReportPlacementQuality records unplaced counts and, when configured, posts
// an alert once the unplaced share crosses PLACEMENT_ALERT_RATIO.
func ReportPlacementQuality(ctx context.Context, log *logger.Logger, m *Metrics, report PlacementReport) {
	for reason, ids := range report.Unplaced {
		m.SetUnplaced(reason, len(ids))
	}
	unplaced := report.total()
	if unplaced == 0 {
		return
	}

	meta := map[string]any{"edition": report.Edition}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			meta["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			meta["request_id"] = td.RequestID
		}
	}
	counts := map[string]int{}
	samples := make([]string, 0, 5)
	reasons := make([]string, 0, len(report.Unplaced))
	for reason := range report.Unplaced {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		ids := report.Unplaced[reason]
		counts[reason] = len(ids)
		for _, id := range ids {
			if len(samples) < cap(samples) {
				samples = append(samples, reason+":"+id)
			}
		}
	}
	if log != nil {
		log.Warn("projects left off the radar",
			"edition", report.Edition,
			"placed", report.Placed,
			"unplaced", counts,
			"sample", samples,
		)
	}

	ratio := float64(unplaced) / float64(unplaced+report.Placed)
	if ratio < envutil.Float("PLACEMENT_ALERT_RATIO", 0.25) {
		return
	}
	sendPlacementAlert(counts, samples, ratio, meta, log)
}

func sendPlacementAlert(counts map[string]int, samples []string, ratio float64, meta map[string]any, log *logger.Logger) {
	if !envutil.Bool("PLACEMENT_ALERTS_ENABLED", false) {
		return
	}
	webhook := strings.TrimSpace(envutil.String("PLACEMENT_ALERT_WEBHOOK_URL", ""))
	if webhook == "" {
		return
	}
	placementAlerts.mu.Lock()
	minInterval := envutil.Duration("PLACEMENT_ALERT_MIN_INTERVAL", 5*time.Minute)
	if !placementAlerts.last.IsZero() && time.Since(placementAlerts.last) < minInterval {
		placementAlerts.mu.Unlock()
		return
	}
	placementAlerts.last = time.Now()
	placementAlerts.mu.Unlock()

	payload := map[string]any{
		"title":     "Radar placement quality",
		"unplaced":  counts,
		"ratio":     ratio,
		"sample":    samples,
		"meta":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		if log != nil {
			log.Warn("placement alert request build failed", "error", err)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Warn("placement alert post failed", "error", err)
		}
		return
	}
	_ = resp.Body.Close()
	if log != nil {
		log.Info("placement alert sent", "status", resp.StatusCode)
	}
}
