package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"botfarm/internal/config"
	"botfarm/internal/models"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(config.PlatformConfig{
		BaseURL:     srv.URL,
		AdminAPIKey: "secret",
		Timeout:     config.Duration(2 * time.Second),
	})
	return c, srv
}

func TestCreateCommentSendsActingUser(t *testing.T) {
	var gotAuth, gotUser string
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.Header.Get("X-Acting-User")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 99, "post_id": 7, "author_id": 42, "body": "hi"}`))
	}))
	defer srv.Close()

	resp, err := c.CreateComment(context.Background(), 42, 7, "hi")
	if err != nil {
		t.Fatalf("CreateComment error: %v", err)
	}
	if resp.ID != 99 {
		t.Errorf("response id = %d, want 99", resp.ID)
	}
	if gotAuth != "Api-Key secret" {
		t.Errorf("Authorization = %q, want Api-Key secret", gotAuth)
	}
	if gotUser != "42" {
		t.Errorf("X-Acting-User = %q, want 42", gotUser)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := c.VotePost(context.Background(), 42, 7, models.VoteUp)
	if err == nil {
		t.Fatal("VotePost on 429 returned nil error")
	}
}

func TestCreateAgentUserRejectsMissingID(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := c.CreateAgentUser(context.Background(), "new_agent"); err == nil {
		t.Error("CreateAgentUser with empty body returned nil error")
	}
}

func TestContextCancellationAborts(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.CheckHealth(ctx); err == nil {
		t.Error("CheckHealth survived a canceled context")
	}
}
