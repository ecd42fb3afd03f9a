package automod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// leveledLogrus понижает ERROR клиента до WARN: промежуточные ошибки ретраятся.
type leveledLogrus struct {
	inner *log.Entry
}

func (l leveledLogrus) Error(msg string, keysAndValues ...interface{}) {
	l.inner.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (l leveledLogrus) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (l leveledLogrus) Info(msg string, keysAndValues ...interface{}) {
	l.inner.WithFields(kvFields(keysAndValues)).Info(msg)
}

func (l leveledLogrus) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func kvFields(kv []interface{}) log.Fields {
	f := make(log.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

// RemoteEvaluator отправляет текст внешнему сервису оценки:
// POST {"text": "..."} → {"score": 0.42}.
type RemoteEvaluator struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemoteEvaluator создаёт клиента с ретраями (connection errors, 5xx, 429)
// и ограничением частоты запросов rps.
func NewRemoteEvaluator(url string, rps float64) *RemoteEvaluator {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 1 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledLogrus{log.WithField("component", "automod_remote")})
	client := retryClient.StandardClient()
	client.Timeout = 10 * time.Second

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RemoteEvaluator{
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	Score float64 `json:"score"`
}

func (r *RemoteEvaluator) Evaluate(ctx context.Context, text string) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	remoteRequestCount.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("remote scorer: HTTP %d", resp.StatusCode)
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("remote scorer: %w", err)
	}
	return out.Score, nil
}
