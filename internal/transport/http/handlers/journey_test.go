package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"flow4ops/internal/app/server"
	"flow4ops/internal/platform/config"
)

// The journey walks both sides of the product against a real database:
// the admin signs in, raises a form request, the seeded employee signs
// in, submits the form, files leave, and the admin decides it.
func TestComplianceAndLeaveJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		Addr:              ":0",
		BaseURL:           "http://test.local",
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		SessionHashKey:    "test-hash",
		SessionBlockKey:   "test-block",
		DataEncryptionKey: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Environment:       "test",
		LogLevel:          "error",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		SeedDemoData:      true,
		RunMigrations:     true,
		RunSeed:           true,
		MigrationsDir:     "../../../../migrations",
		MaxBodyBytes:      10 << 20,
		MaxUploadBytes:    5 << 20,
		UploadBucket:      "compliance-forms",
		AccessTokenTTL:    15 * time.Minute,
		SessionTTL:        8 * time.Hour,
		RateLimitPerMin:   1000,
		EmailFrom:         "no-reply@test.local",
	}

	app, err := server.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	t.Run("anonymous visitor is gated", func(t *testing.T) {
		client := noRedirectClient(t)
		resp, err := client.Get(ts.URL + "/hr/dashboard")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Fatalf("expected 303 to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})

	admin := signIn(t, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword, "/hr/dashboard")
	employee := signIn(t, ts.URL, "employee@testcompany.com", "ChangeMe123!", "/employee/dashboard")

	t.Run("signed-in users are routed by role from landing paths", func(t *testing.T) {
		for client, want := range map[*http.Client]string{
			admin:    "/hr/dashboard",
			employee: "/employee/dashboard",
		} {
			resp, err := client.Get(ts.URL + "/dashboard")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != want {
				t.Fatalf("expected 303 to %s, got %d %q", want, resp.StatusCode, resp.Header.Get("Location"))
			}
		}
	})

	t.Run("employee cannot reach the hr surface", func(t *testing.T) {
		resp, err := employee.Get(ts.URL + "/hr/dashboard")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/employee/dashboard" {
			t.Fatalf("expected 303 to /employee/dashboard, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})

	dueDate := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	t.Run("hr raises a form request", func(t *testing.T) {
		resp, err := admin.PostForm(ts.URL+"/hr/compliance", url.Values{
			"form_type": {"eea1"},
			"title":     {"Journey EEA1"},
			"due_date":  {dueDate},
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after create, got %d", resp.StatusCode)
		}
	})

	requestID := findRequestID(t, employee, ts.URL)

	t.Run("empty upload is rejected", func(t *testing.T) {
		resp := submitForm(t, employee, ts.URL, requestID, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty upload, got %d", resp.StatusCode)
		}
	})

	t.Run("employee submits the form", func(t *testing.T) {
		resp := submitForm(t, employee, ts.URL, requestID, []byte("%PDF-1.4 journey"))
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after submit, got %d", resp.StatusCode)
		}
	})

	t.Run("hr sees the submission in the status board", func(t *testing.T) {
		body := fetchPage(t, admin, ts.URL+"/hr/compliance")
		if !strings.Contains(body, "Journey EEA1") {
			t.Fatal("expected the request on the hr compliance page")
		}
	})

	t.Run("status report pdf downloads", func(t *testing.T) {
		resp, err := admin.Get(ts.URL + "/hr/compliance/export.pdf")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		head := make([]byte, 4)
		if _, err := io.ReadFull(resp.Body, head); err != nil || string(head) != "%PDF" {
			t.Fatalf("expected a pdf body, got %q (%v)", head, err)
		}
	})

	t.Run("employee files leave and hr approves it", func(t *testing.T) {
		start := time.Now().AddDate(0, 0, 20).Format("2006-01-02")
		end := time.Now().AddDate(0, 0, 24).Format("2006-01-02")
		resp, err := employee.PostForm(ts.URL+"/employee/leave", url.Values{
			"leave_type": {"annual"},
			"start_date": {start},
			"end_date":   {end},
			"reason":     {"journey"},
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after request, got %d", resp.StatusCode)
		}

		page := fetchPage(t, admin, ts.URL+"/hr/leave")
		id := extractLeaveID(t, page)

		resp, err = admin.Post(ts.URL+"/hr/leave/"+id+"/approve", "application/x-www-form-urlencoded", nil)
		if err != nil {
			t.Fatalf("approve: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after approval, got %d", resp.StatusCode)
		}

		dash := fetchPage(t, employee, ts.URL+"/employee/leave")
		if !strings.Contains(dash, "Approved") {
			t.Fatal("expected the approved request on the employee leave page")
		}
	})

	t.Run("logout kills the session", func(t *testing.T) {
		resp, err := employee.Post(ts.URL+"/logout", "application/x-www-form-urlencoded", nil)
		if err != nil {
			t.Fatalf("logout: %v", err)
		}
		resp.Body.Close()

		resp, err = employee.Get(ts.URL + "/employee/dashboard")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Fatalf("expected redirect to /login after logout, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})
}

func noRedirectClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func signIn(t *testing.T, baseURL, email, password, wantLanding string) *http.Client {
	t.Helper()
	client := noRedirectClient(t)
	resp, err := client.PostForm(baseURL+"/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login for %s: expected 303, got %d", email, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != wantLanding {
		t.Fatalf("login for %s: expected landing %s, got %q", email, wantLanding, got)
	}
	return client
}

func fetchPage(t *testing.T, client *http.Client, pageURL string) string {
	t.Helper()
	resp, err := client.Get(pageURL)
	if err != nil {
		t.Fatalf("get %s: %v", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: expected 200, got %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", pageURL, err)
	}
	return string(body)
}

// findRequestID pulls the newest submit link off the employee
// compliance page.
func findRequestID(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	body := fetchPage(t, client, baseURL+"/employee/compliance")
	marker := "/compliance/submit?request="
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatal("no submit link on the employee compliance page")
	}
	rest := body[idx+len(marker):]
	end := strings.IndexAny(rest, `"'`)
	if end < 0 {
		t.Fatal("malformed submit link")
	}
	return rest[:end]
}

func extractLeaveID(t *testing.T, page string) string {
	t.Helper()
	marker := "/hr/leave/"
	idx := strings.Index(page, marker)
	if idx < 0 {
		t.Fatal("no pending leave action on the hr leave page")
	}
	rest := page[idx+len(marker):]
	end := strings.Index(rest, "/")
	if end < 0 {
		t.Fatal("malformed leave action link")
	}
	return rest[:end]
}

func submitForm(t *testing.T, client *http.Client, baseURL, requestID string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("request_id", requestID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("document", "journey.pdf")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/compliance/submit", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resp.Body.Close()
	return resp
}
