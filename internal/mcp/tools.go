package mcp

// In this file: tool definitions, handlers, and the error-conversion
// boundary.  Handlers never return a Go error for domain failures; every
// failure becomes an IsError result so nothing can crash the transport.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"slides2mcp/internal/model"
	"slides2mcp/internal/protocol"
	"slides2mcp/internal/registry"
	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/widgets"
)

func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolCreateSlide(),
		s.toolCreateSlideCarousel(),
		s.toolSearchImages(),
		s.toolApplyTheme(),
		s.toolShowThemePicker(),
	}
}

// ─── create_slide ─────────────────────────────────────────────────────────────

func (s *Server) toolCreateSlide() mcpsrv.ServerTool {
	tool := mcplib.NewTool(protocol.ToolNameCreateSlide,
		mcplib.WithDescription(`Generate one presentation slide.

Omit presentation_id (or pass "") to start a new presentation; the result
carries the presentation_id to pass on every subsequent call so slides land
in the same deck.  The slide object requires title and slidenum, and may
carry subtitle, image_id (from search_images), bullets
([{point, description, icon}]), notes, sources ([{title, link}]) and an
overwrite flag to replace the slide at the same position.`),
		mcplib.WithString("presentation_id",
			mcplib.Description("Continuity token from a previous call; empty starts a new presentation."),
		),
		mcplib.WithObject("slide",
			mcplib.Description("The slide payload to render."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateSlide}
}

func (s *Server) handleCreateSlide(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	slide, err := s.decodeSlide(req.GetArguments()["slide"])
	if err != nil {
		return invalidArgumentResult(err), nil
	}

	token, _ := stringArg(req, "presentation_id")
	pc := s.reg.ResolveOrCreate(token)

	gen, err := s.client.Generate(ctx, slide, identityOf(pc))
	if err != nil {
		return domainErrorResult(err), nil
	}
	count := pc.RecordSlide()
	if deckID, ok := slidesgpt.ExtractDeckID(gen.PresentationViewURL); ok {
		pc.SeedDeckID(deckID)
	}

	payload := slidePayload{
		PresentationID:      pc.ID,
		DeckID:              pc.DeckID(),
		SlideNumber:         slide.SlideNum,
		SlideCount:          count,
		ImageURL:            gen.ImageURL,
		PresentationViewURL: gen.PresentationViewURL,
		Widget:              widgets.SlideViewer,
	}
	summary := fmt.Sprintf("Created slide %d (%q) in presentation %s.", slide.SlideNum, slide.Title, pc.ID)
	if offer := s.maybeOfferTheme(pc); offer != nil {
		payload.ThemeOptions = offer
		summary += " Theme options are included; call apply_theme to restyle the deck."
	}
	return resultWith(summary, payload), nil
}

// ─── create_slide_carousel ────────────────────────────────────────────────────

func (s *Server) toolCreateSlideCarousel() mcpsrv.ServerTool {
	tool := mcplib.NewTool(protocol.ToolNameCreateSlideCarousel,
		mcplib.WithDescription(`Generate several slides in one call.

Slides are rendered strictly in input order into the same deck.  Accepts the
same slide objects as create_slide.  Omit presentation_id to start a new
presentation.`),
		mcplib.WithString("presentation_id",
			mcplib.Description("Continuity token from a previous call; empty starts a new presentation."),
		),
		mcplib.WithArray("slides",
			mcplib.Description("Ordered list of slide payloads to render."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateSlideCarousel}
}

func (s *Server) handleCreateSlideCarousel(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	slides, err := s.decodeSlides(req.GetArguments()["slides"])
	if err != nil {
		return invalidArgumentResult(err), nil
	}

	token, _ := stringArg(req, "presentation_id")
	pc := s.reg.ResolveOrCreate(token)

	// Sequential on purpose: slide numbering on the remote side is
	// monotonic, and the first response seeds the deck id.
	items := make([]carouselItem, 0, len(slides))
	viewURL := ""
	for i, slide := range slides {
		gen, err := s.client.Generate(ctx, slide, identityOf(pc))
		if err != nil {
			res := domainErrorResult(err)
			res.StructuredContent = carouselFailure{
				PresentationID: pc.ID,
				FailedIndex:    i,
				Completed:      items,
			}
			return res, nil
		}
		pc.RecordSlide()
		if deckID, ok := slidesgpt.ExtractDeckID(gen.PresentationViewURL); ok {
			pc.SeedDeckID(deckID)
		}
		viewURL = gen.PresentationViewURL
		items = append(items, carouselItem{
			SlideNumber: slide.SlideNum,
			Title:       slide.Title,
			ImageURL:    gen.ImageURL,
		})
	}

	payload := carouselPayload{
		PresentationID:      pc.ID,
		DeckID:              pc.DeckID(),
		SlideCount:          pc.SlideCount(),
		Slides:              items,
		PresentationViewURL: viewURL,
		Widget:              widgets.SlideCarousel,
	}
	summary := fmt.Sprintf("Created %d slides in presentation %s.", len(items), pc.ID)
	if offer := s.maybeOfferTheme(pc); offer != nil {
		payload.ThemeOptions = offer
		summary += " Theme options are included; call apply_theme to restyle the deck."
	}
	return resultWith(summary, payload), nil
}

// ─── search_images ────────────────────────────────────────────────────────────

func (s *Server) toolSearchImages() mcpsrv.ServerTool {
	tool := mcplib.NewTool(protocol.ToolNameSearchImages,
		mcplib.WithDescription(`Search stock imagery for a slide.

Returns ranked candidates; pass a chosen imageId as the slide's image_id on
the next create_slide call.  Finding nothing is a normal outcome, not an
error.`),
		mcplib.WithString("caption",
			mcplib.Description("What the image should depict."),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSearchImages}
}

func (s *Server) handleSearchImages(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	caption, ok := stringArg(req, "caption")
	if !ok || caption == "" {
		return invalidArgumentResult(&model.ValidationError{Field: "caption", Message: "required"}), nil
	}

	results, err := s.client.SearchImages(ctx, caption)
	if err != nil {
		return domainErrorResult(err), nil
	}

	if len(results) == 0 {
		return resultWith(
			fmt.Sprintf("No images found for %q. Try a broader caption.", caption),
			searchPayload{Caption: caption, Candidates: []model.ImageResult{}},
		), nil
	}

	// Contract: the caller picks from ranked candidates.  The auto-select
	// variant collapses to the single best match for runtimes that cannot
	// present a choice.
	if s.cfg.SlidesGPT.AutoSelectImage {
		best := results[0]
		return resultWith(
			fmt.Sprintf("Selected image %s for %q.", best.ImageID, caption),
			searchPayload{Caption: caption, Selected: &best, Candidates: []model.ImageResult{best}},
		), nil
	}

	if max := s.cfg.Search.MaxResults; max > 0 && len(results) > max {
		results = results[:max]
	}
	return resultWith(
		fmt.Sprintf("Found %d image candidates for %q; pick one and pass its imageId as image_id.", len(results), caption),
		searchPayload{Caption: caption, Candidates: results},
	), nil
}

// ─── apply_theme ──────────────────────────────────────────────────────────────

func (s *Server) toolApplyTheme() mcpsrv.ServerTool {
	tool := mcplib.NewTool(protocol.ToolNameApplyTheme,
		mcplib.WithDescription(`Re-render every slide of an existing presentation in a new theme.

Requires a presentation_id from a previous create_slide call, and that at
least one slide has been generated.  Valid theme_id values come from
show_theme_picker.`),
		mcplib.WithString("presentation_id",
			mcplib.Description("Continuity token of the presentation to restyle."),
			mcplib.Required(),
		),
		mcplib.WithString("theme_id",
			mcplib.Description("Catalog id of the theme to apply."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleApplyTheme}
}

func (s *Server) handleApplyTheme(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	token, ok := stringArg(req, "presentation_id")
	if !ok || token == "" {
		return invalidArgumentResult(&model.ValidationError{Field: "presentation_id", Message: "required"}), nil
	}
	themeID, ok := stringArg(req, "theme_id")
	if !ok || themeID == "" {
		return invalidArgumentResult(&model.ValidationError{Field: "theme_id", Message: "required"}), nil
	}
	if !s.catalog.Valid(themeID) {
		return invalidArgumentResult(&model.ValidationError{
			Field:   "theme_id",
			Message: fmt.Sprintf("unknown theme %q; call show_theme_picker for the catalog", themeID),
		}), nil
	}

	pc, err := s.reg.Lookup(token)
	if err != nil {
		return domainErrorResult(err), nil
	}
	deckID := pc.DeckID()
	if deckID == "" {
		return domainErrorResult(model.ErrDeckNotReady), nil
	}

	applied, err := s.client.ApplyTheme(ctx, deckID, themeID, identityOf(pc))
	if err != nil {
		return domainErrorResult(err), nil
	}
	pc.SetThemeID(themeID)

	payload := applyThemePayload{
		PresentationID:      pc.ID,
		DeckID:              deckID,
		ThemeID:             themeID,
		PerSlideURLs:        applied.PerSlideURLs,
		PresentationViewURL: applied.PresentationViewURL,
		Widget:              widgets.SlideCarousel,
	}
	return resultWith(
		fmt.Sprintf("Applied theme %q to presentation %s (%d slides re-rendered).", themeID, pc.ID, len(applied.PerSlideURLs)),
		payload,
	), nil
}

// ─── show_theme_picker ────────────────────────────────────────────────────────

func (s *Server) toolShowThemePicker() mcpsrv.ServerTool {
	tool := mcplib.NewTool(protocol.ToolNameShowThemePicker,
		mcplib.WithDescription(`Show the theme catalog so the user can pick a style for the deck.

Read-only.  Works with or without an existing presentation; pass
recommended_theme_id to pre-highlight a suggestion.`),
		mcplib.WithString("presentation_id",
			mcplib.Description("Continuity token, if a presentation already exists."),
		),
		mcplib.WithString("recommended_theme_id",
			mcplib.Description("Theme to recommend in the picker."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleShowThemePicker}
}

func (s *Server) handleShowThemePicker(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	recommended, _ := stringArg(req, "recommended_theme_id")
	if recommended != "" && !s.catalog.Valid(recommended) {
		return invalidArgumentResult(&model.ValidationError{
			Field:   "recommended_theme_id",
			Message: fmt.Sprintf("unknown theme %q", recommended),
		}), nil
	}
	if recommended == "" {
		recommended = s.catalog.DefaultRecommendation
	}

	payload := themePickerPayload{
		Themes:      s.catalog.All(),
		Recommended: recommended,
		Widget:      widgets.ThemePicker,
	}
	// A missing presentation is fine here: the picker renders without a deck
	// reference and apply_theme is where existence is enforced.
	if token, _ := stringArg(req, "presentation_id"); token != "" {
		if pc, ok := s.reg.Peek(token); ok {
			payload.PresentationID = pc.ID
			if deckID := pc.DeckID(); deckID != "" {
				payload.DeckID = &deckID
			}
		}
	}

	return resultWith(
		fmt.Sprintf("Theme catalog: %d styles available; %q is recommended.", len(payload.Themes), recommended),
		payload,
	), nil
}

// ─── shared helpers ───────────────────────────────────────────────────────────

func identityOf(pc *registry.Context) slidesgpt.Identity {
	return slidesgpt.Identity{UserID: pc.UserID, ConversationID: pc.ConversationID}
}

// maybeOfferTheme attaches the catalog summary exactly once per presentation,
// regardless of which slide-creating tool triggered it.
func (s *Server) maybeOfferTheme(pc *registry.Context) *themeOffer {
	if !pc.OfferThemeOnce() {
		return nil
	}
	options := make([]themeOption, 0, len(s.catalog.All()))
	for _, t := range s.catalog.All() {
		options = append(options, themeOption{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return &themeOffer{
		Recommended: s.catalog.DefaultRecommendation,
		Options:     options,
	}
}

func (s *Server) decodeSlide(v interface{}) (model.Slide, error) {
	if v == nil {
		return model.Slide{}, &model.ValidationError{Field: "slide", Message: "required"}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return model.Slide{}, &model.ValidationError{Field: "slide", Message: "not an object"}
	}
	var slide model.Slide
	if err := json.Unmarshal(raw, &slide); err != nil {
		return model.Slide{}, &model.ValidationError{Field: "slide", Message: "malformed slide object: " + err.Error()}
	}
	if err := s.validate.Struct(slide); err != nil {
		return model.Slide{}, &model.ValidationError{Field: "slide", Message: validationMessage(err)}
	}
	return slide, nil
}

func (s *Server) decodeSlides(v interface{}) ([]model.Slide, error) {
	if v == nil {
		return nil, &model.ValidationError{Field: "slides", Message: "required"}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &model.ValidationError{Field: "slides", Message: "not an array"}
	}
	var slides []model.Slide
	if err := json.Unmarshal(raw, &slides); err != nil {
		return nil, &model.ValidationError{Field: "slides", Message: "malformed slides array: " + err.Error()}
	}
	if len(slides) == 0 {
		return nil, &model.ValidationError{Field: "slides", Message: "must contain at least one slide"}
	}
	for i, slide := range slides {
		if err := s.validate.Struct(slide); err != nil {
			return nil, &model.ValidationError{
				Field:   fmt.Sprintf("slides[%d]", i),
				Message: validationMessage(err),
			}
		}
	}
	return slides, nil
}

// validationMessage flattens a validator error into a single readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %s fails %q validation", first.Namespace(), first.Tag())
	}
	return err.Error()
}
