package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

// baseURL points at a running server, e.g. E2E_BASE_URL=http://localhost:8080/api/v1
func baseURL() string {
	if u := os.Getenv("E2E_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080/api/v1"
}

type Target struct {
	Channel    string   `json:"channel"`
	Recipients []string `json:"recipients,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Title      string   `json:"title,omitempty"`
}

type Content struct {
	Body string `json:"body"`
}

type ScheduleRequest struct {
	BusinessID   string   `json:"business_id"`
	Content      *Content `json:"content,omitempty"`
	ContentID    string   `json:"content_id,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	HoursFromNow *float64 `json:"hours_from_now,omitempty"`
}

type ScheduledPost struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Targets     []Target  `json:"targets"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Error       string    `json:"error"`
}

type PlatformPeakHours struct {
	Platform  string `json:"platform"`
	Hours     []int  `json:"hours"`
	IsPeakNow bool   `json:"is_peak_now"`
}

type ContentRecord struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Body       string `json:"body"`
}

// requireServer skips the test when no server is listening
func requireServer(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	u, err := url.Parse(baseURL())
	if err != nil {
		t.Fatalf("Invalid E2E_BASE_URL: %v", err)
	}
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s://%s/healthz", u.Scheme, u.Host))
	if err != nil {
		t.Skipf("server not reachable: %v", err)
	}
	resp.Body.Close()
}

func doJSON(t *testing.T, method, path string, in interface{}, wantStatus int, out interface{}) {
	t.Helper()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("Failed to encode request: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL()+path, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, wantStatus, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

// firstChannel returns a registered channel or skips the test
func firstChannel(t *testing.T) string {
	t.Helper()

	var resp struct {
		Channels []string `json:"channels"`
	}
	doJSON(t, http.MethodGet, "/publish/channels", nil, http.StatusOK, &resp)
	if len(resp.Channels) == 0 {
		t.Skip("server has no publishing channel configured")
	}
	return resp.Channels[0]
}

// TestPeakHours tests GET /peak-hours/{platform} and the toggle round trip
func TestPeakHours(t *testing.T) {
	requireServer(t)

	platform := fmt.Sprintf("e2e-%d", time.Now().UnixNano())

	var before PlatformPeakHours
	doJSON(t, http.MethodGet, "/peak-hours/"+platform, nil, http.StatusOK, &before)
	if len(before.Hours) == 0 {
		t.Fatal("Expected default hours for an unknown platform")
	}

	var added PlatformPeakHours
	doJSON(t, http.MethodPost, "/peak-hours/"+platform+"/toggle", map[string]int{"hour": 3}, http.StatusOK, &added)
	if len(added.Hours) != len(before.Hours)+1 {
		t.Errorf("Expected hour 3 to be added, got %v", added.Hours)
	}

	var removed PlatformPeakHours
	doJSON(t, http.MethodPost, "/peak-hours/"+platform+"/toggle", map[string]int{"hour": 3}, http.StatusOK, &removed)
	if len(removed.Hours) != len(before.Hours) {
		t.Errorf("Expected hour 3 to be removed, got %v", removed.Hours)
	}

	t.Run("hour out of range fails", func(t *testing.T) {
		doJSON(t, http.MethodPost, "/peak-hours/"+platform+"/toggle", map[string]int{"hour": 24}, http.StatusBadRequest, nil)
	})
}

// TestScheduleAndCancel tests POST /schedule followed by cancel
func TestScheduleAndCancel(t *testing.T) {
	requireServer(t)
	channel := firstChannel(t)

	hours := 48.0
	var post ScheduledPost
	doJSON(t, http.MethodPost, "/schedule", ScheduleRequest{
		BusinessID:   "e2e",
		Content:      &Content{Body: "Scheduled post #e2e"},
		Platforms:    []string{channel},
		HoursFromNow: &hours,
	}, http.StatusCreated, &post)

	if post.Status != "pending" {
		t.Errorf("Expected status 'pending', got '%s'", post.Status)
	}
	if !post.ScheduledAt.After(time.Now().Add(47 * time.Hour)) {
		t.Errorf("Expected post in about 48h, got %s", post.ScheduledAt)
	}

	var got ScheduledPost
	doJSON(t, http.MethodGet, "/schedule/"+post.ID, nil, http.StatusOK, &got)
	if got.ID != post.ID {
		t.Errorf("Expected ID %s, got %s", post.ID, got.ID)
	}

	var cancelled ScheduledPost
	doJSON(t, http.MethodPost, "/schedule/"+post.ID+"/cancel", nil, http.StatusOK, &cancelled)
	if cancelled.Status != "failed" || cancelled.Error != "cancelled" {
		t.Errorf("Expected failed/cancelled, got %s/%s", cancelled.Status, cancelled.Error)
	}

	t.Run("cancel twice conflicts", func(t *testing.T) {
		doJSON(t, http.MethodPost, "/schedule/"+post.ID+"/cancel", nil, http.StatusConflict, nil)
	})

	t.Run("unknown channel fails", func(t *testing.T) {
		doJSON(t, http.MethodPost, "/schedule", ScheduleRequest{
			BusinessID: "e2e",
			Content:    &Content{Body: "x"},
			Platforms:  []string{"carrier-pigeon"},
		}, http.StatusBadRequest, nil)
	})
}

// TestContentScheduling tests scheduling stored content by ID
func TestContentScheduling(t *testing.T) {
	requireServer(t)
	channel := firstChannel(t)

	var rec ContentRecord
	doJSON(t, http.MethodPost, "/content", map[string]string{
		"business_id": "e2e",
		"body":        "Stored content #e2e",
	}, http.StatusCreated, &rec)
	if rec.ID == "" {
		t.Fatal("Expected ID to be set")
	}

	hours := 24.0
	var post ScheduledPost
	doJSON(t, http.MethodPost, "/schedule", ScheduleRequest{
		BusinessID:   "e2e",
		ContentID:    rec.ID,
		Platforms:    []string{channel},
		HoursFromNow: &hours,
	}, http.StatusCreated, &post)
	defer doJSON(t, http.MethodPost, "/schedule/"+post.ID+"/cancel", nil, http.StatusOK, nil)

	t.Run("unknown content fails", func(t *testing.T) {
		doJSON(t, http.MethodPost, "/schedule", ScheduleRequest{
			BusinessID: "e2e",
			ContentID:  "does-not-exist",
			Platforms:  []string{channel},
		}, http.StatusNotFound, nil)
	})
}

// TestRecipients tests the managed recipient list
func TestRecipients(t *testing.T) {
	requireServer(t)

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	doJSON(t, http.MethodPost, "/recipients", map[string]string{"email": email}, http.StatusCreated, nil)

	var list struct {
		Recipients []struct {
			Email string `json:"email"`
		} `json:"recipients"`
	}
	doJSON(t, http.MethodGet, "/recipients", nil, http.StatusOK, &list)

	found := false
	for _, r := range list.Recipients {
		if r.Email == email {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s in recipient list", email)
	}

	doJSON(t, http.MethodDelete, "/recipients/"+email, nil, http.StatusNoContent, nil)
	doJSON(t, http.MethodDelete, "/recipients/"+email, nil, http.StatusNotFound, nil)
}

// TestAutomationUnknownBusiness tests that stopping an idle business is a no-op
func TestAutomationUnknownBusiness(t *testing.T) {
	requireServer(t)

	id := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	doJSON(t, http.MethodPost, "/automation/"+id+"/stop", nil, http.StatusOK, nil)
	doJSON(t, http.MethodGet, "/automation/"+id, nil, http.StatusNotFound, nil)
	doJSON(t, http.MethodPost, "/automation/"+id+"/start", map[string]int{"interval_seconds": 0}, http.StatusBadRequest, nil)
}

// TestContentUpdateAndDelete tests PATCH and DELETE /content/{id}
func TestContentUpdateAndDelete(t *testing.T) {
	requireServer(t)

	var rec ContentRecord
	doJSON(t, http.MethodPost, "/content", map[string]string{
		"business_id": "e2e",
		"body":        "Content to edit #e2e",
	}, http.StatusCreated, &rec)

	var updated struct {
		Media struct {
			VideoURL string `json:"video_url"`
		} `json:"media"`
	}
	doJSON(t, http.MethodPatch, "/content/"+rec.ID, map[string]string{
		"video_url": "https://cdn.example.com/e2e.mp4",
	}, http.StatusOK, &updated)
	if updated.Media.VideoURL != "https://cdn.example.com/e2e.mp4" {
		t.Errorf("Expected video URL to be attached, got '%s'", updated.Media.VideoURL)
	}

	doJSON(t, http.MethodDelete, "/content/"+rec.ID, nil, http.StatusNoContent, nil)
	doJSON(t, http.MethodGet, "/content/"+rec.ID, nil, http.StatusNotFound, nil)
}

// TestTrends tests GET /trends
func TestTrends(t *testing.T) {
	requireServer(t)

	var resp struct {
		Query  string   `json:"query"`
		Topics []string `json:"topics"`
	}
	doJSON(t, http.MethodGet, "/trends?query=coffee", nil, http.StatusOK, &resp)
	if resp.Query != "coffee" {
		t.Errorf("Expected query 'coffee', got '%s'", resp.Query)
	}
	if len(resp.Topics) == 0 {
		t.Error("Expected at least one topic")
	}
}
