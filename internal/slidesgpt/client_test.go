package slidesgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"slides2mcp/internal/model"
)

func testSlide() model.Slide {
	return model.Slide{
		Title:    "Quarterly results",
		SlideNum: 1,
		Bullets: []model.Bullet{
			{Point: "Revenue up 12%"},
		},
	}
}

func TestGenerateSendsIdentityAndVersionMarker(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("ephemeral-user-id"); got != "user-1" {
			t.Errorf("ephemeral-user-id = %q", got)
		}
		if got := r.Header.Get("conversation-id"); got != "conv-1" {
			t.Errorf("conversation-id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(model.GenerateResult{
			ImageURL:            "https://cdn.example/slide1.png",
			PresentationViewURL: "https://slidesgpt.com/view/deck123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	res, err := c.Generate(context.Background(), testSlide(), Identity{UserID: "user-1", ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.ImageURL != "https://cdn.example/slide1.png" {
		t.Fatalf("ImageURL = %q", res.ImageURL)
	}
	if gotBody["api"] != "v1" {
		t.Fatalf("version marker = %v, want v1", gotBody["api"])
	}
	if gotBody["title"] != "Quarterly results" {
		t.Fatalf("title = %v", gotBody["title"])
	}
}

func TestGenerateDoesNotRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "generation backend down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Generate(context.Background(), testSlide(), Identity{})

	var re *model.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *model.RemoteError", err)
	}
	if re.Op != "generate" || re.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected RemoteError: %+v", re)
	}
	if re.Body == "" {
		t.Fatal("RemoteError.Body should carry the raw response")
	}
	// Generation is not idempotent; one failed attempt must stay one attempt.
	if n := calls.Load(); n != 1 {
		t.Fatalf("remote called %d times, want 1", n)
	}
}

func TestSearchImagesEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("caption"); got != "purple giraffe" {
			t.Errorf("caption = %q", got)
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	results, err := c.SearchImages(context.Background(), "purple giraffe")
	if err != nil {
		t.Fatalf("SearchImages: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("results = %#v, want empty non-nil slice", results)
	}
}

func TestSearchImagesRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.ImageResult{
			{ImageID: "img-1", Caption: "a giraffe", PreviewURL: "https://cdn.example/1.jpg"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	results, err := c.SearchImages(context.Background(), "giraffe")
	if err != nil {
		t.Fatalf("SearchImages: %v", err)
	}
	if len(results) != 1 || results[0].ImageID != "img-1" {
		t.Fatalf("results = %#v", results)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("remote called %d times, want 2", n)
	}
}

func TestSearchImagesDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad caption", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.SearchImages(context.Background(), "")
	var re *model.RemoteError
	if !errors.As(err, &re) || re.Op != "search" || re.StatusCode != http.StatusBadRequest {
		t.Fatalf("error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("remote called %d times, want 1", n)
	}
}

func TestApplyTheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apply-theme" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["deckId"] != "deck123" || body["themeId"] != "aurora" {
			t.Errorf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(model.ThemeResult{
			Success:             true,
			AppliedTheme:        "aurora",
			PerSlideURLs:        []string{"https://cdn.example/s1.png", "https://cdn.example/s2.png"},
			PresentationViewURL: "https://slidesgpt.com/view/deck123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.ApplyTheme(context.Background(), "deck123", "aurora", Identity{UserID: "u", ConversationID: "c"})
	if err != nil {
		t.Fatalf("ApplyTheme: %v", err)
	}
	if !res.Success || res.AppliedTheme != "aurora" || len(res.PerSlideURLs) != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestApplyThemeRetriesThenSurfacesFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "theme renderer crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.MaxRetries = 1
	_, err := c.ApplyTheme(context.Background(), "deck123", "noir", Identity{})

	var re *model.RemoteError
	if !errors.As(err, &re) || re.Op != "apply-theme" {
		t.Fatalf("error = %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("remote called %d times, want 2 (1 retry)", n)
	}
}

func TestMalformedResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Generate(context.Background(), testSlide(), Identity{})
	var re *model.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *model.RemoteError", err)
	}
	if re.Retryable {
		t.Fatal("malformed body must not be marked retryable")
	}
}
