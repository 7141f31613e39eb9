package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

// ReportSchedule mirrors the server's schedule payload.
type ReportSchedule struct {
	ID         uint       `json:"ID"`
	Name       string     `json:"name"`
	Cadence    string     `json:"cadence"`
	Format     string     `json:"format"`
	Channel    string     `json:"channel"`
	Recipients []string   `json:"recipients"`
	Enabled    bool       `json:"enabled"`
	NextDueAt  time.Time  `json:"next_due_at"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
}

// AuditEntry mirrors the server's audit payload.
type AuditEntry struct {
	ID             uint      `json:"ID"`
	ReportID       uint      `json:"report_id"`
	SentAt         time.Time `json:"sent_at"`
	Status         string    `json:"status"`
	RecipientCount int       `json:"recipient_count"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
}

// BatchResult mirrors the trigger endpoint's response.
type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) doRequest(method, path string, body interface{}, extraHeaders map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	token := viper.GetString("token")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(respBody))
	}

	return respBody, nil
}

func (c *APIClient) Login(username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.doRequest("POST", "/api/v1/auth/login", body, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func (c *APIClient) ListReports() ([]ReportSchedule, error) {
	resp, err := c.doRequest("GET", "/api/v1/reports", nil, nil)
	if err != nil {
		return nil, err
	}

	var reports []ReportSchedule
	if err := json.Unmarshal(resp, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *APIClient) GetAudit(reportID uint, limit int) ([]AuditEntry, error) {
	path := fmt.Sprintf("/api/v1/reports/%d/audit", reportID)
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	resp, err := c.doRequest("GET", path, nil, nil)
	if err != nil {
		return nil, err
	}

	var entries []AuditEntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *APIClient) SetEnabled(reportID uint, enabled bool) error {
	action := "disable"
	if enabled {
		action = "enable"
	}
	_, err := c.doRequest("PUT", fmt.Sprintf("/api/v1/reports/%d/%s", reportID, action), nil, nil)
	return err
}

func (c *APIClient) TriggerReport(reportID uint) ([]byte, error) {
	return c.doRequest("POST", fmt.Sprintf("/api/v1/reports/%d/trigger", reportID), nil, nil)
}

// TriggerBatch calls the external trigger endpoint with the pre-shared key.
func (c *APIClient) TriggerBatch(apiKey string) (*BatchResult, error) {
	resp, err := c.doRequest("POST", "/api/v1/scheduler/trigger", nil,
		map[string]string{"X-API-Key": apiKey})
	if err != nil {
		return nil, err
	}

	var result BatchResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) SchedulerHealth() (map[string]interface{}, error) {
	resp, err := c.doRequest("GET", "/api/v1/scheduler/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var health map[string]interface{}
	if err := json.Unmarshal(resp, &health); err != nil {
		return nil, err
	}
	return health, nil
}
