package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type studentResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type attendanceResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

type paymentResponse struct {
	ID                string  `json:"id"`
	StudentID         string  `json:"student_id"`
	Amount            string  `json:"amount"`
	EndDate           string  `json:"end_date"`
	SessionsTotal     int32   `json:"sessions_total"`
	SessionsCompleted int32   `json:"sessions_completed"`
	SessionsRemaining int32   `json:"sessions_remaining"`
	ProgressPercent   float64 `json:"progress_percent"`
	Active            bool    `json:"active"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func TestAttendanceLifecycle(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("SERVER_HTTP_ADDR", "http://127.0.0.1:8080")

	student := createStudent(t, baseURL, "통합 테스트 학생")

	today := time.Now().UTC().Format("2006-01-02")
	resp, body := doRequest(t, http.MethodPost, baseURL+"/attendance", map[string]interface{}{
		"student_id": student.ID,
		"date":       today,
		"status":     "present",
		"check_in":   "14:30",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create attendance status %d: %s", resp.StatusCode, body)
	}
	var rec attendanceResponse
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decode attendance: %v", err)
	}
	if rec.Status != "present" {
		t.Fatalf("expected status present, got %s", rec.Status)
	}

	// Second record for the same student and date must conflict.
	resp, body = doRequest(t, http.MethodPost, baseURL+"/attendance", map[string]interface{}{
		"student_id": student.ID,
		"date":       today,
		"status":     "late",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "attendance_exists" {
		t.Fatalf("expected attendance_exists, got %s", errResp.Error)
	}

	resp, body = doRequest(t, http.MethodGet, baseURL+"/attendance/today", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("today listing status %d", resp.StatusCode)
	}
	var listing []attendanceResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode today listing: %v", err)
	}
	found := false
	for _, item := range listing {
		if item.ID == rec.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created record missing from today listing")
	}

	resp, _ = doRequest(t, http.MethodGet, baseURL+"/attendance/stats/"+student.ID+"?period=weekly", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attendance stats status %d", resp.StatusCode)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("SERVER_HTTP_ADDR", "http://127.0.0.1:8080")

	student := createStudent(t, baseURL, "결제 테스트 학생")

	resp, body := doRequest(t, http.MethodPost, baseURL+"/payments", map[string]interface{}{
		"student_id":     student.ID,
		"amount":         "300000.00",
		"method":         "transfer",
		"sessions_total": 2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create payment status %d: %s", resp.StatusCode, body)
	}
	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if !payment.Active || payment.SessionsRemaining != 2 {
		t.Fatalf("unexpected payment state: %+v", payment)
	}

	// A second package deactivates the first.
	resp, body = doRequest(t, http.MethodPost, baseURL+"/payments", map[string]interface{}{
		"student_id":     student.ID,
		"amount":         "150000.00",
		"method":         "card",
		"sessions_total": 2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("second payment status %d", resp.StatusCode)
	}
	var second paymentResponse
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("decode second payment: %v", err)
	}
	resp, body = doRequest(t, http.MethodGet, baseURL+"/payments/"+payment.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get payment status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &payment); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if payment.Active {
		t.Fatalf("prior payment still active after new package")
	}

	// Exhaust the active package; the final session deactivates it.
	for i := 0; i < 2; i++ {
		resp, body = doRequest(t, http.MethodPut, baseURL+"/payments/"+second.ID+"/complete-session", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("complete session %d status %d: %s", i+1, resp.StatusCode, body)
		}
	}
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("decode completed payment: %v", err)
	}
	if second.Active || second.SessionsCompleted != 2 || second.ProgressPercent != 100 {
		t.Fatalf("unexpected exhausted state: %+v", second)
	}

	resp, body = doRequest(t, http.MethodPut, baseURL+"/payments/"+second.ID+"/complete-session", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on inactive package, got %d", resp.StatusCode)
	}

	// Extension reactivates and re-resolves the end date.
	resp, body = doRequest(t, http.MethodPut, baseURL+"/payments/"+second.ID+"/extend", map[string]interface{}{
		"additional_sessions": 4,
		"additional_amount":   "100000.00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extend status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("decode extended payment: %v", err)
	}
	if !second.Active || second.SessionsTotal != 6 || second.SessionsRemaining != 4 {
		t.Fatalf("unexpected extended state: %+v", second)
	}

	resp, _ = doRequest(t, http.MethodGet, baseURL+"/payments/stats?period=quarterly", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment stats status %d", resp.StatusCode)
	}
}

func TestBulkAttendance(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL := getenv("SERVER_HTTP_ADDR", "http://127.0.0.1:8080")

	first := createStudent(t, baseURL, "일괄 출석 학생 1")
	second := createStudent(t, baseURL, "일괄 출석 학생 2")

	resp, body := doRequest(t, http.MethodPost, baseURL+"/attendance/bulk", map[string]interface{}{
		"items": []map[string]interface{}{
			{"student_id": first.ID, "status": "present"},
			{"student_id": second.ID, "status": "absent"},
			{"student_id": "00000000-0000-0000-0000-000000000000", "status": "present"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bulk status %d: %s", resp.StatusCode, body)
	}
	var result struct {
		SuccessCount int `json:"success_count"`
		ErrorCount   int `json:"error_count"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode bulk result: %v", err)
	}
	if result.SuccessCount != 2 || result.ErrorCount != 1 {
		t.Fatalf("expected 2 successes and 1 error, got %+v", result)
	}

	futureDate := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	resp, body = doRequest(t, http.MethodPost, baseURL+"/attendance/bulk", map[string]interface{}{
		"date":  futureDate,
		"items": []map[string]interface{}{{"student_id": first.ID, "status": "present"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for future date, got %d", resp.StatusCode)
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "future_date" {
		t.Fatalf("expected future_date, got %s", errResp.Error)
	}
}

func createStudent(t *testing.T, baseURL, name string) studentResponse {
	t.Helper()
	resp, body := doRequest(t, http.MethodPost, baseURL+"/students", map[string]interface{}{
		"name":     name,
		"grade":    "중2",
		"subjects": []string{"수학"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create student status %d: %s", resp.StatusCode, body)
	}
	var student studentResponse
	if err := json.Unmarshal(body, &student); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	if student.ID == "" {
		t.Fatalf("missing student id")
	}
	t.Cleanup(func() {
		req, err := http.NewRequest(http.MethodDelete, baseURL+"/students/"+student.ID+"?hard=true", nil)
		if err != nil {
			return
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	})
	return student
}

func doRequest(t *testing.T, method, url string, payload map[string]interface{}) (*http.Response, []byte) {
	t.Helper()
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, body
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
