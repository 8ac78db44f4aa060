package mcp

// In this file: result payload shapes and the error-to-result conversion
// shared by all tool handlers.

import (
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"slides2mcp/internal/model"
	"slides2mcp/internal/protocol"
	"slides2mcp/internal/themes"
)

type themeOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// themeOffer is attached to the first slide-creating result of a
// presentation so the assistant can suggest a style without a second call.
type themeOffer struct {
	Recommended string        `json:"recommended"`
	Options     []themeOption `json:"options"`
}

type slidePayload struct {
	PresentationID      string      `json:"presentationId"`
	DeckID              string      `json:"deckId,omitempty"`
	SlideNumber         int         `json:"slideNumber"`
	SlideCount          int         `json:"slideCount"`
	ImageURL            string      `json:"imageUrl"`
	PresentationViewURL string      `json:"presentationViewUrl"`
	Widget              string      `json:"widget"`
	ThemeOptions        *themeOffer `json:"themeOptions,omitempty"`
}

type carouselItem struct {
	SlideNumber int    `json:"slideNumber"`
	Title       string `json:"title"`
	ImageURL    string `json:"imageUrl"`
}

type carouselPayload struct {
	PresentationID      string         `json:"presentationId"`
	DeckID              string         `json:"deckId,omitempty"`
	SlideCount          int            `json:"slideCount"`
	Slides              []carouselItem `json:"slides"`
	PresentationViewURL string         `json:"presentationViewUrl,omitempty"`
	Widget              string         `json:"widget"`
	ThemeOptions        *themeOffer    `json:"themeOptions,omitempty"`
}

// carouselFailure reports a mid-batch generation failure together with the
// slides that did land before it.
type carouselFailure struct {
	PresentationID string         `json:"presentationId"`
	FailedIndex    int            `json:"failedIndex"`
	Completed      []carouselItem `json:"completed"`
}

type searchPayload struct {
	Caption    string              `json:"caption"`
	Candidates []model.ImageResult `json:"candidates"`
	Selected   *model.ImageResult  `json:"selected,omitempty"`
}

type applyThemePayload struct {
	PresentationID      string   `json:"presentationId"`
	DeckID              string   `json:"deckId"`
	ThemeID             string   `json:"themeId"`
	PerSlideURLs        []string `json:"perSlideUrls"`
	PresentationViewURL string   `json:"presentationViewUrl"`
	Widget              string   `json:"widget"`
}

type themePickerPayload struct {
	PresentationID string         `json:"presentationId,omitempty"`
	DeckID         *string        `json:"deckId"`
	Themes         []themes.Theme `json:"themes"`
	Recommended    string         `json:"recommended,omitempty"`
	Widget         string         `json:"widget"`
}

// resultWith pairs a human-readable summary with a machine-readable payload.
func resultWith(summary string, payload interface{}) *mcplib.CallToolResult {
	res := mcplib.NewToolResultText(summary)
	res.StructuredContent = payload
	return res
}

// errorResult builds a flagged tool result; the transport still sees a
// perfectly ordinary response.
func errorResult(code, message string, retryable bool) *mcplib.CallToolResult {
	res := &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.NewTextContent(fmt.Sprintf("ERROR: %s: %s", code, message)),
		},
		IsError: true,
	}
	res.StructuredContent = map[string]interface{}{
		"error": map[string]interface{}{
			"code":      code,
			"message":   message,
			"retryable": retryable,
		},
	}
	return res
}

func invalidArgumentResult(err error) *mcplib.CallToolResult {
	return errorResult(protocol.ErrorCodeInvalidArgument, err.Error(), false)
}

// domainErrorResult maps every error the registry or remote client can
// produce onto its canonical code.  This is the dispatcher boundary: nothing
// below it is allowed to escape as a transport-level failure.
func domainErrorResult(err error) *mcplib.CallToolResult {
	switch {
	case errors.Is(err, model.ErrPresentationNotFound):
		return errorResult(protocol.ErrorCodePresentationNotFound,
			"no presentation with that id; check the presentation_id from your earlier create_slide result", false)
	case errors.Is(err, model.ErrDeckNotReady):
		return errorResult(protocol.ErrorCodeDeckNotReady,
			"this presentation has no slides yet; create at least one slide before applying a theme", false)
	}

	var re *model.RemoteError
	if errors.As(err, &re) {
		code := protocol.ErrorCodeInternal
		switch re.Op {
		case "generate":
			code = protocol.ErrorCodeRemoteGenerationFailed
		case "search":
			code = protocol.ErrorCodeRemoteSearchFailed
		case "apply-theme":
			code = protocol.ErrorCodeRemoteThemeFailed
		}
		return errorResult(code, re.Error(), re.Retryable)
	}

	return errorResult(protocol.ErrorCodeInternal, err.Error(), false)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
