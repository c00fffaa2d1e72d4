// Package ci is the HTTP client for the CI system that actually executes
// reruns. The core only ever triggers one spec, resolves its queue item to
// a build number and polls that build's progress.
package ci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

func New(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("client", "ci"),
	}
}

type triggerRequest struct {
	Scope      string `json:"scope"`
	Target     string `json:"target"`
	TestSpecID string `json:"testSpecId"`
}

type triggerResponse struct {
	QueueURL string `json:"queueUrl"`
	Message  string `json:"message"`
}

// TriggerSpecRerun asks CI to rerun one spec. A non-success response yields
// RerunRejectedError with the server's reason; a success response without a
// queue reference is a ProtocolError.
func (c *Client) TriggerSpecRerun(ctx context.Context, session, specPath, testSpecID string) (string, error) {
	const op = "ci.TriggerSpecRerun"

	body, err := json.Marshal(triggerRequest{Scope: "SPEC", Target: specPath, TestSpecID: testSpecID})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jenkins/rerun/spec", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("Cookie", session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	var payload triggerResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &payload)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.WithField("status", resp.StatusCode).Warnf("%s: rejected: %s", op, payload.Message)
		return "", &domain.RerunRejectedError{Reason: payload.Message}
	}
	if payload.QueueURL == "" {
		return "", &domain.ProtocolError{Missing: "queueUrl"}
	}
	return payload.QueueURL, nil
}

type queueResponse struct {
	BuildNumber int64 `json:"buildNumber"`
}

// ResolveQueue maps a queue reference to a build number. Zero means the
// queue item has not been assigned a build yet; callers keep polling.
func (c *Client) ResolveQueue(ctx context.Context, session, queueURL string) (int64, error) {
	const op = "ci.ResolveQueue"

	endpoint := c.baseURL + "/api/jenkins/queue/resolve?queueUrl=" + url.QueryEscape(queueURL)
	var payload queueResponse
	if err := c.get(ctx, op, endpoint, session, &payload); err != nil {
		return 0, err
	}
	return payload.BuildNumber, nil
}

// Progress is one build-progress snapshot.
type Progress struct {
	Progress int  `json:"progress"`
	Finished bool `json:"finished"`
}

// BuildProgress reports how far along a build is.
func (c *Client) BuildProgress(ctx context.Context, session string, buildNumber int64) (Progress, error) {
	const op = "ci.BuildProgress"

	endpoint := fmt.Sprintf("%s/api/jenkins/build/%d/progress", c.baseURL, buildNumber)
	var payload Progress
	if err := c.get(ctx, op, endpoint, session, &payload); err != nil {
		return Progress{}, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, op, endpoint, session string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if session != "" {
		req.Header.Set("Cookie", session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &msg)
		return &domain.RemoteError{StatusCode: resp.StatusCode, Message: msg.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ProtocolError{Missing: "valid JSON body"}
	}
	return nil
}
