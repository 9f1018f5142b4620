//go:build integration
// +build integration

package cases

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/communityos/occurrence-service/test/integration/infra"
	"github.com/communityos/occurrence-service/test/integration/infra/wait"
)

type Env struct {
	BaseURL   string
	DBURL     string
	JWTSecret string
	JWTIssuer string

	UserToken  string
	OtherToken string
	AdminToken string
}

const (
	userID  = "11111111-1111-1111-1111-111111111111"
	otherID = "22222222-2222-2222-2222-222222222222"
	adminID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("missing env %s", k)
	}
	return v
}

func setup(t *testing.T) Env {
	t.Helper()

	e := Env{
		BaseURL:   mustEnv(t, "OCCURRENCE_BASE_URL"),
		DBURL:     mustEnv(t, "DATABASE_URL"),
		JWTSecret: mustEnv(t, "JWT_SECRET"),
		JWTIssuer: mustEnv(t, "JWT_ISSUER"),
	}

	if err := wait.HTTP200(e.BaseURL+"/healthz", 10*time.Second); err != nil {
		t.Fatalf("occurrence-service not ready: %v", err)
	}

	// Reset DB
	db, err := infra.OpenDB(e.DBURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := infra.PingDB(db); err != nil {
		t.Fatalf("ping db: %v", err)
	}
	if err := infra.ResetOccurrences(db); err != nil {
		t.Fatalf("reset occurrences: %v", err)
	}

	e.UserToken, err = infra.MakeToken(e.JWTSecret, e.JWTIssuer, userID, "user", 0, 15*time.Minute)
	if err != nil {
		t.Fatalf("make user token: %v", err)
	}
	e.OtherToken, err = infra.MakeToken(e.JWTSecret, e.JWTIssuer, otherID, "user", 0, 15*time.Minute)
	if err != nil {
		t.Fatalf("make other token: %v", err)
	}
	e.AdminToken, err = infra.MakeToken(e.JWTSecret, e.JWTIssuer, adminID, "admin", 0, 15*time.Minute)
	if err != nil {
		t.Fatalf("make admin token: %v", err)
	}

	return e
}

type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error,omitempty"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, Envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func createOccurrence(t *testing.T, e Env, token, title string) string {
	t.Helper()

	body := map[string]any{
		"title":      title,
		"location":   "Hall A",
		"visibility": "public",
		"event_type": "internal",
		"start_time": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"end_time":   time.Now().UTC().Add(25 * time.Hour).Format(time.RFC3339),
	}
	code, env := doJSON(t, "POST", e.BaseURL+"/occurrence/v1/occurrences", token, body)
	if code != 201 {
		t.Fatalf("create occurrence: want 201 got %d, err: %+v", code, env.Error)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	return created.ID
}
