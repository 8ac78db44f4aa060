package mcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slides2mcp/internal/config"
	"slides2mcp/internal/model"
	"slides2mcp/internal/registry"
	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/themes"
	"slides2mcp/internal/widgets"
)

// fakeRemote stands in for the SlidesGPT service.
type fakeRemote struct {
	mu             sync.Mutex
	generateTitles []string
	conversations  []string
	failGenerateAt int // 1-based call number to fail; 0 never fails
	searchResults  []model.ImageResult
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		var body struct {
			Title string `json:"title"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.generateTitles = append(f.generateTitles, body.Title)
		f.conversations = append(f.conversations, r.Header.Get("conversation-id"))
		call := len(f.generateTitles)
		fail := f.failGenerateAt != 0 && call == f.failGenerateAt
		f.mu.Unlock()

		if fail {
			http.Error(w, "render farm on fire", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(model.GenerateResult{
			ImageURL:            "https://cdn.example/slide.png",
			PresentationViewURL: "https://slidesgpt.com/view/deck123",
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		results := f.searchResults
		f.mu.Unlock()
		if results == nil {
			results = []model.ImageResult{}
		}
		_ = json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc("/apply-theme", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ThemeID string `json:"themeId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(model.ThemeResult{
			Success:             true,
			AppliedTheme:        body.ThemeID,
			PerSlideURLs:        []string{"https://cdn.example/s1.png"},
			PresentationViewURL: "https://slidesgpt.com/view/deck123",
		})
	})
	return mux
}

func (f *fakeRemote) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.generateTitles...)
}

func (f *fakeRemote) conversationIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.conversations...)
}

func newTestServer(t *testing.T, remote *fakeRemote, mutate func(*config.Config)) *Server {
	t.Helper()

	backend := httptest.NewServer(remote.handler())
	t.Cleanup(backend.Close)

	cfg := config.Default()
	cfg.SlidesGPT.BaseURL = backend.URL
	cfg.SlidesGPT.MaxRetries = 0
	if mutate != nil {
		mutate(&cfg)
	}

	catalog, err := themes.Load()
	require.NoError(t, err)
	ws, err := widgets.Load()
	require.NoError(t, err)

	client := slidesgpt.NewClient(cfg.SlidesGPT.BaseURL, "")
	client.MaxRetries = cfg.SlidesGPT.MaxRetries

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&cfg, registry.New(registry.WithLogger(logger)), client, catalog, ws, logger)
}

func reqWith(args map[string]interface{}) mcplib.CallToolRequest {
	req := mcplib.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func slideArg(title string, num int) map[string]interface{} {
	return map[string]interface{}{"title": title, "slidenum": num}
}

// firstText returns the text of the first TextContent in the result.
func firstText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content, "result has no content")
	txt, ok := r.Content[0].(mcplib.TextContent)
	require.True(t, ok, "first content item is not TextContent")
	return txt.Text
}

// ─── create_slide ─────────────────────────────────────────────────────────────

func TestCreateSlideLifecycle(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	// First slide with an empty token mints a fresh presentation.
	res, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": "",
		"slide":           slideArg("Intro", 1),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, firstText(t, res))

	payload, ok := res.StructuredContent.(slidePayload)
	require.True(t, ok, "structured content is not slidePayload")
	assert.True(t, strings.HasPrefix(payload.PresentationID, "pres_"), "id = %q", payload.PresentationID)
	assert.Equal(t, 1, payload.SlideCount)
	assert.Equal(t, "deck123", payload.DeckID)
	assert.Equal(t, widgets.SlideViewer, payload.Widget)
	require.NotNil(t, payload.ThemeOptions, "first slide must carry theme options")
	assert.NotEmpty(t, payload.ThemeOptions.Options)

	// Second slide resumes the same presentation; theme already offered.
	res2, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": payload.PresentationID,
		"slide":           slideArg("Details", 2),
	}))
	require.NoError(t, err)
	require.False(t, res2.IsError, firstText(t, res2))

	payload2 := res2.StructuredContent.(slidePayload)
	assert.Equal(t, payload.PresentationID, payload2.PresentationID)
	assert.Equal(t, 2, payload2.SlideCount)
	assert.Nil(t, payload2.ThemeOptions, "theme must be offered only once")

	// The correlation identity is stable across calls of one presentation.
	convs := remote.conversationIDs()
	require.Len(t, convs, 2)
	assert.Equal(t, convs[0], convs[1])
	assert.NotEmpty(t, convs[0])

	// A fabricated token on apply_theme is a user-facing not-found.
	res3, err := srv.handleApplyTheme(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": "pres_fabricated",
		"theme_id":        "aurora",
	}))
	require.NoError(t, err)
	assert.True(t, res3.IsError)
	assert.Contains(t, firstText(t, res3), "PRESENTATION_NOT_FOUND")
}

func TestCreateSlideRejectsMalformedInput(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing slide", map[string]interface{}{}},
		{"slide not an object", map[string]interface{}{"slide": "nope"}},
		{"missing title", map[string]interface{}{"slide": map[string]interface{}{"slidenum": 1}}},
		{"zero slidenum", map[string]interface{}{"slide": map[string]interface{}{"title": "x"}}},
		{"bad source link", map[string]interface{}{"slide": map[string]interface{}{
			"title": "x", "slidenum": 1,
			"sources": []interface{}{map[string]interface{}{"title": "ref", "link": "not a url"}},
		}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := srv.handleCreateSlide(t.Context(), reqWith(tc.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, firstText(t, res), "INVALID_ARGUMENT")
		})
	}
	// Validation happens before any remote interaction.
	assert.Empty(t, remote.titles())
}

func TestCreateSlideRemoteFailure(t *testing.T) {
	remote := &fakeRemote{failGenerateAt: 1}
	srv := newTestServer(t, remote, nil)

	res, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"slide": slideArg("Intro", 1),
	}))
	require.NoError(t, err, "remote failures must not become transport errors")
	assert.True(t, res.IsError)
	assert.Contains(t, firstText(t, res), "REMOTE_GENERATION_FAILED")
	assert.Contains(t, firstText(t, res), "502")
}

// ─── create_slide_carousel ────────────────────────────────────────────────────

func TestCarouselGeneratesSequentially(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	res, err := srv.handleCreateSlideCarousel(t.Context(), reqWith(map[string]interface{}{
		"slides": []interface{}{
			slideArg("One", 1),
			slideArg("Two", 2),
			slideArg("Three", 3),
		},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, firstText(t, res))

	payload, ok := res.StructuredContent.(carouselPayload)
	require.True(t, ok, "structured content is not carouselPayload")
	assert.Equal(t, 3, payload.SlideCount)
	assert.Equal(t, "deck123", payload.DeckID)
	assert.Equal(t, widgets.SlideCarousel, payload.Widget)
	assert.NotNil(t, payload.ThemeOptions)
	assert.Equal(t, "https://slidesgpt.com/view/deck123", payload.PresentationViewURL)

	// Input order is preserved on the wire.
	assert.Equal(t, []string{"One", "Two", "Three"}, remote.titles())

	convs := remote.conversationIDs()
	for _, c := range convs {
		assert.Equal(t, convs[0], c, "one carousel, one correlation identity")
	}
}

func TestCarouselMidBatchFailure(t *testing.T) {
	remote := &fakeRemote{failGenerateAt: 2}
	srv := newTestServer(t, remote, nil)

	res, err := srv.handleCreateSlideCarousel(t.Context(), reqWith(map[string]interface{}{
		"slides": []interface{}{
			slideArg("One", 1),
			slideArg("Two", 2),
			slideArg("Three", 3),
		},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	failure, ok := res.StructuredContent.(carouselFailure)
	require.True(t, ok, "structured content is not carouselFailure")
	assert.Equal(t, 1, failure.FailedIndex)
	require.Len(t, failure.Completed, 1)
	assert.Equal(t, "One", failure.Completed[0].Title)

	// The third slide was never attempted.
	assert.Equal(t, []string{"One", "Two"}, remote.titles())

	// The slides that landed still count toward the presentation.
	pc, err2 := srv.reg.Lookup(failure.PresentationID)
	require.NoError(t, err2)
	assert.Equal(t, 1, pc.SlideCount())
}

func TestThemeOfferedOnceAcrossTools(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	res, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"slide": slideArg("Intro", 1),
	}))
	require.NoError(t, err)
	payload := res.StructuredContent.(slidePayload)
	require.NotNil(t, payload.ThemeOptions)

	res2, err := srv.handleCreateSlideCarousel(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": payload.PresentationID,
		"slides":          []interface{}{slideArg("Two", 2)},
	}))
	require.NoError(t, err)
	payload2 := res2.StructuredContent.(carouselPayload)
	assert.Nil(t, payload2.ThemeOptions, "offer-once spans both slide-creating tools")
}

// ─── search_images ────────────────────────────────────────────────────────────

func TestSearchImagesNoResults(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	res, err := srv.handleSearchImages(t.Context(), reqWith(map[string]interface{}{
		"caption": "purple giraffe riding a unicycle",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, "zero hits is a normal outcome")
	assert.Contains(t, firstText(t, res), "No images found")

	payload := res.StructuredContent.(searchPayload)
	assert.Empty(t, payload.Candidates)
	assert.Nil(t, payload.Selected)
}

func TestSearchImagesCallerPicks(t *testing.T) {
	remote := &fakeRemote{}
	for i := 0; i < 10; i++ {
		remote.searchResults = append(remote.searchResults, model.ImageResult{
			ImageID: "img-" + string(rune('a'+i)), Caption: "giraffe",
		})
	}
	srv := newTestServer(t, remote, func(c *config.Config) {
		c.Search.MaxResults = 3
	})

	res, err := srv.handleSearchImages(t.Context(), reqWith(map[string]interface{}{"caption": "giraffe"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	payload := res.StructuredContent.(searchPayload)
	assert.Len(t, payload.Candidates, 3)
	assert.Nil(t, payload.Selected, "caller-picks mode must not auto-select")
	assert.Equal(t, "img-a", payload.Candidates[0].ImageID, "ranking order preserved")
}

func TestSearchImagesAutoSelect(t *testing.T) {
	remote := &fakeRemote{searchResults: []model.ImageResult{
		{ImageID: "img-best", Caption: "giraffe"},
		{ImageID: "img-second", Caption: "giraffe"},
	}}
	srv := newTestServer(t, remote, func(c *config.Config) {
		c.SlidesGPT.AutoSelectImage = true
	})

	res, err := srv.handleSearchImages(t.Context(), reqWith(map[string]interface{}{"caption": "giraffe"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	payload := res.StructuredContent.(searchPayload)
	require.NotNil(t, payload.Selected)
	assert.Equal(t, "img-best", payload.Selected.ImageID)
	assert.Len(t, payload.Candidates, 1)
}

func TestSearchImagesRequiresCaption(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	res, err := srv.handleSearchImages(t.Context(), reqWith(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, firstText(t, res), "INVALID_ARGUMENT")
}

// ─── apply_theme ──────────────────────────────────────────────────────────────

func TestApplyThemeDeckNotReady(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	// A context that exists but has no generated slides yet.
	pc := srv.reg.ResolveOrCreate("")

	res, err := srv.handleApplyTheme(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": pc.ID,
		"theme_id":        "aurora",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, firstText(t, res), "DECK_NOT_READY")
}

func TestApplyThemeUnknownTheme(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	res, err := srv.handleApplyTheme(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": "pres_whatever",
		"theme_id":        "vaporwave-3000",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, firstText(t, res), "INVALID_ARGUMENT")
}

func TestApplyThemeSuccess(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	created, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"slide": slideArg("Intro", 1),
	}))
	require.NoError(t, err)
	token := created.StructuredContent.(slidePayload).PresentationID

	res, err := srv.handleApplyTheme(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": token,
		"theme_id":        "noir",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, firstText(t, res))

	payload := res.StructuredContent.(applyThemePayload)
	assert.Equal(t, "noir", payload.ThemeID)
	assert.Equal(t, "deck123", payload.DeckID)
	assert.NotEmpty(t, payload.PerSlideURLs)

	pc, err := srv.reg.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, "noir", pc.ThemeID())
}

// ─── show_theme_picker ────────────────────────────────────────────────────────

func TestShowThemePickerWithoutPresentation(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	res, err := srv.handleShowThemePicker(t.Context(), reqWith(map[string]interface{}{
		"presentation_id": "pres_neverseen",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, "missing presentation is tolerated here")

	payload := res.StructuredContent.(themePickerPayload)
	assert.Nil(t, payload.DeckID)
	assert.Empty(t, payload.PresentationID)
	assert.NotEmpty(t, payload.Themes)
	assert.Equal(t, srv.catalog.DefaultRecommendation, payload.Recommended)
	assert.Equal(t, widgets.ThemePicker, payload.Widget)
}

func TestShowThemePickerWithDeck(t *testing.T) {
	remote := &fakeRemote{}
	srv := newTestServer(t, remote, nil)

	created, err := srv.handleCreateSlide(t.Context(), reqWith(map[string]interface{}{
		"slide": slideArg("Intro", 1),
	}))
	require.NoError(t, err)
	token := created.StructuredContent.(slidePayload).PresentationID

	res, err := srv.handleShowThemePicker(t.Context(), reqWith(map[string]interface{}{
		"presentation_id":      token,
		"recommended_theme_id": "velvet",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	payload := res.StructuredContent.(themePickerPayload)
	require.NotNil(t, payload.DeckID)
	assert.Equal(t, "deck123", *payload.DeckID)
	assert.Equal(t, token, payload.PresentationID)
	assert.Equal(t, "velvet", payload.Recommended)
}

func TestShowThemePickerRejectsUnknownRecommendation(t *testing.T) {
	srv := newTestServer(t, &fakeRemote{}, nil)

	res, err := srv.handleShowThemePicker(t.Context(), reqWith(map[string]interface{}{
		"recommended_theme_id": "not-a-theme",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, firstText(t, res), "INVALID_ARGUMENT")
}
