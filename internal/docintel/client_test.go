package docintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testAPIKey = "test-key"

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testAPIKey,
		WithPolling(time.Millisecond, 3),
		WithHTTPClient(srv.Client()))
}

func writeStatus(t *testing.T, w http.ResponseWriter, result ScanResult) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		t.Errorf("encode poll response: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	var gotPath, gotKey, gotBody string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		var req struct {
			URLSource string `json:"urlSource"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode submit body: %v", err)
		}
		gotBody = req.URLSource
		w.Header().Set("Operation-Location", "http://analysis.example/operations/42")
		w.WriteHeader(http.StatusAccepted)
	}))

	loc, err := c.Submit(context.Background(), "https://blobs.example/receipts/abc")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if loc != "http://analysis.example/operations/42" {
		t.Errorf("operation location = %q", loc)
	}
	wantPath := "/documentintelligence/documentModels/prebuilt-receipt:analyze?api-version=2024-11-30"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if gotKey != testAPIKey {
		t.Errorf("auth header = %q", gotKey)
	}
	if gotBody != "https://blobs.example/receipts/abc" {
		t.Errorf("urlSource = %q", gotBody)
	}
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad model", http.StatusBadRequest)
			},
		},
		{
			name: "missing operation location",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Submit(context.Background(), "https://blobs.example/x")
			if !errors.Is(err, ErrSubmission) {
				t.Errorf("error = %v, want ErrSubmission", err)
			}
		})
	}
}

func TestPollSucceeds(t *testing.T) {
	var polls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != testAPIKey {
			t.Errorf("poll auth header = %q", got)
		}
		if polls.Add(1) < 3 {
			writeStatus(t, w, ScanResult{Status: StatusRunning})
			return
		}
		writeStatus(t, w, ScanResult{
			Status:        StatusSucceeded,
			AnalyzeResult: &AnalyzeResult{Documents: []Document{{}}},
		})
	}))

	result, err := c.Poll(context.Background(), c.endpoint+"/operations/42")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(result.Documents) != 1 {
		t.Errorf("got %d documents", len(result.Documents))
	}
	if polls.Load() != 3 {
		t.Errorf("polled %d times, want 3", polls.Load())
	}
}

func TestPollTimesOutAfterBudget(t *testing.T) {
	var polls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		writeStatus(t, w, ScanResult{Status: StatusRunning})
	}))

	_, err := c.Poll(context.Background(), c.endpoint+"/operations/42")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if polls.Load() != 3 {
		t.Errorf("polled %d times, want exactly the budget of 3", polls.Load())
	}
}

func TestPollFailures(t *testing.T) {
	tests := []struct {
		name    string
		result  ScanResult
		status  int
		wantErr error
	}{
		{
			name:    "job failed",
			result:  ScanResult{Status: StatusFailed},
			wantErr: ErrAnalysis,
		},
		{
			name:    "unknown status",
			result:  ScanResult{Status: "exploded"},
			wantErr: ErrAnalysis,
		},
		{
			name:    "succeeded without result",
			result:  ScanResult{Status: StatusSucceeded},
			wantErr: ErrParse,
		},
		{
			name:    "poll request rejected",
			status:  http.StatusInternalServerError,
			wantErr: ErrAnalysis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					http.Error(w, "boom", tt.status)
					return
				}
				writeStatus(t, w, tt.result)
			}))
			_, err := c.Poll(context.Background(), c.endpoint+"/operations/42")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		writeStatus(t, w, ScanResult{Status: StatusRunning})
	}))

	_, err := c.Poll(ctx, c.endpoint+"/operations/42")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if !strings.Contains(fmt.Sprint(err), context.Canceled.Error()) {
		t.Errorf("error %v does not carry the cancellation cause", err)
	}
}
