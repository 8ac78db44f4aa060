package protocol

const (
	ToolNameCreateSlide         = "create_slide"
	ToolNameCreateSlideCarousel = "create_slide_carousel"
	ToolNameSearchImages        = "search_images"
	ToolNameApplyTheme          = "apply_theme"
	ToolNameShowThemePicker     = "show_theme_picker"
)

const (
	ErrorCodeRemoteGenerationFailed = "REMOTE_GENERATION_FAILED"
	ErrorCodeRemoteSearchFailed     = "REMOTE_SEARCH_FAILED"
	ErrorCodeRemoteThemeFailed      = "REMOTE_THEME_FAILED"
	ErrorCodePresentationNotFound   = "PRESENTATION_NOT_FOUND"
	ErrorCodeDeckNotReady           = "DECK_NOT_READY"
	ErrorCodeInvalidArgument        = "INVALID_ARGUMENT"
	ErrorCodeInternal               = "INTERNAL"
)

const (
	DefaultListenAddr = "127.0.0.1:8090"

	SSEEndpoint     = "/sse"
	MessageEndpoint = "/message"

	HealthEndpoint       = "/healthz"
	VerificationEndpoint = "/slidesgpt-verification.txt"
)
