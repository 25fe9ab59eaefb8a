// Package client talks to the scheduling API over HTTP. It backs the
// booking workflow and the schedctl commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
	"github.com/BruksfildServices01/clinic-scheduler/internal/workflow"
)

const defaultHTTPTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetHTTPClient replaces the transport (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// APIError is a non-2xx answer outside the business taxonomy, such as 401
// or 429.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// ======================================================
// DIRECTORY + AVAILABILITY
// ======================================================

func (c *Client) ListProviders(ctx context.Context, specialization string) ([]models.Provider, error) {
	q := url.Values{}
	if specialization != "" {
		q.Set("specialization", specialization)
	}

	var out listResponse[models.Provider]
	if err := c.do(ctx, http.MethodGet, "/api/providers", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ListAvailability(ctx context.Context, providerID, date string) ([]availability.Slot, error) {
	q := url.Values{"date": {date}}

	var out listResponse[availability.Slot]
	if err := c.do(ctx, http.MethodGet, "/api/providers/"+url.PathEscape(providerID)+"/availability", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type ChangeSignal struct {
	Cursor       int64 `json:"cursor"`
	Changed      bool  `json:"changed"`
	PollInterval int   `json:"poll_interval_seconds"`
}

func (c *Client) ChangesSince(ctx context.Context, providerID, date string, cursor int64) (ChangeSignal, error) {
	q := url.Values{
		"date":   {date},
		"cursor": {strconv.FormatInt(cursor, 10)},
	}

	var out ChangeSignal
	err := c.do(ctx, http.MethodGet, "/api/providers/"+url.PathEscape(providerID)+"/changes", q, nil, &out)
	return out, err
}

// ======================================================
// CONFIG
// ======================================================

type ConfigRequest struct {
	WorkStart      string `json:"work_start"`
	WorkEnd        string `json:"work_end"`
	SlotDuration   int    `json:"slot_duration"`
	BufferDuration int    `json:"buffer_duration"`
	Mode           string `json:"mode"`
}

func (c *Client) GetConfig(ctx context.Context, providerID string) (*models.AvailabilityConfig, error) {
	var out models.AvailabilityConfig
	if err := c.do(ctx, http.MethodGet, "/api/providers/"+url.PathEscape(providerID)+"/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateConfig(ctx context.Context, providerID string, req ConfigRequest) (*models.AvailabilityConfig, error) {
	var out models.AvailabilityConfig
	if err := c.do(ctx, http.MethodPut, "/api/providers/"+url.PathEscape(providerID)+"/config", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ======================================================
// APPOINTMENTS
// ======================================================

func (c *Client) Book(ctx context.Context, providerID string, start time.Time, reason string) (*models.Appointment, error) {
	body := map[string]string{
		"provider_id": providerID,
		"start":       start.Format(time.RFC3339),
		"reason":      reason,
	}

	var out models.Appointment
	if err := c.do(ctx, http.MethodPost, "/api/appointments", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) transition(ctx context.Context, id, action string) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.do(ctx, http.MethodPost, "/api/appointments/"+url.PathEscape(id)+"/"+action, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Cancel(ctx context.Context, id string) (*models.Appointment, error) {
	return c.transition(ctx, id, "cancel")
}

func (c *Client) Confirm(ctx context.Context, id string) (*models.Appointment, error) {
	return c.transition(ctx, id, "confirm")
}

func (c *Client) Complete(ctx context.Context, id string) (*models.Appointment, error) {
	return c.transition(ctx, id, "complete")
}

func (c *Client) MyAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out listResponse[models.Appointment]
	if err := c.do(ctx, http.MethodGet, "/api/me/appointments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ======================================================
// TRIAGE
// ======================================================

func (c *Client) Triage(ctx context.Context, text string, priorTurns []string) (triage.Result, error) {
	body := map[string]any{
		"text":        text,
		"prior_turns": priorTurns,
	}

	var out triage.Result
	err := c.do(ctx, http.MethodPost, "/api/triage", nil, body, &out)
	return out, err
}

// ======================================================
// TRANSPORT
// ======================================================

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return httperr.Store(method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(method+" "+path, resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("client: unmarshal response: %w", err)
	}
	return nil
}

var businessCodes = map[string]bool{
	httperr.CodeValidation:        true,
	httperr.CodeSlotTaken:         true,
	httperr.CodeConflict:          true,
	httperr.CodeInvalidTransition: true,
	httperr.CodeNotFound:          true,
	httperr.CodeForbidden:         true,
}

// decodeError turns an error body back into the same typed error the
// server raised, so callers branch on it the same way in process or remote.
func decodeError(op string, status int, body []byte) error {
	var e httperr.HTTPError
	_ = json.Unmarshal(body, &e)

	if businessCodes[e.Code] {
		return httperr.BusinessError{Code: e.Code, Message: e.Message}
	}
	if status == http.StatusServiceUnavailable {
		return httperr.Store(op, fmt.Errorf("api: %s", e.Message))
	}

	if e.Code == "" {
		e.Code = http.StatusText(status)
		e.Message = strings.TrimSpace(string(body))
	}
	return &APIError{Status: status, Code: e.Code, Message: e.Message}
}

var _ workflow.Backend = (*Client)(nil)
