package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestForward_PostsVerbatimBody(t *testing.T) {
	body := []byte(`{"symbol":"AAPL","price":230.12}`)

	var gotBody []byte
	var gotType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	res := c.Forward(context.Background(), body)

	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotType != "application/json" {
		t.Errorf("expected application/json, got %s", gotType)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body mismatch: %s", gotBody)
	}
}

func TestForward_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second, nil).Forward(context.Background(), []byte(`{}`))
	if res.OK() || res.Err == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", res.StatusCode)
	}
}

func TestForward_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(url, time.Second, nil).Forward(context.Background(), []byte(`{}`))
	if !res.Attempted || res.Err == nil {
		t.Fatalf("expected attempted failure, got %+v", res)
	}
}

func TestForward_TimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := NewClient(srv.URL, 100*time.Millisecond, nil).Forward(context.Background(), []byte(`{}`))
	if res.Err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("forward not bounded by timeout: took %v", elapsed)
	}
}

func TestForward_DisabledIsNoop(t *testing.T) {
	c := NewClient("", time.Second, nil)
	if c.Enabled() {
		t.Fatal("expected relay disabled for empty url")
	}
	if res := c.Forward(context.Background(), []byte(`{}`)); res.Attempted {
		t.Errorf("expected no attempt, got %+v", res)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Error("expected nil client to be disabled")
	}
}
