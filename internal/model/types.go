package model

// Slide is the payload for a single generated slide.  It is passed through
// to the remote generation service as-is; we validate shape only.
type Slide struct {
	Title    string   `json:"title" validate:"required,max=300"`
	Subtitle string   `json:"subtitle,omitempty" validate:"max=500"`
	SlideNum int      `json:"slidenum" validate:"required,min=1,max=200"`
	ImageID  string   `json:"image_id,omitempty"`
	Bullets  []Bullet `json:"bullets,omitempty" validate:"max=12,dive"`
	Notes    string   `json:"notes,omitempty"`
	Sources  []Source `json:"sources,omitempty" validate:"max=10,dive"`
	// Overwrite replaces an existing slide at the same ordinal instead of
	// appending a new one.
	Overwrite bool `json:"overwrite,omitempty"`
}

// Bullet is one entry in a slide's bullet list.
type Bullet struct {
	Point       string `json:"point" validate:"required,max=300"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Icon        string `json:"icon,omitempty" validate:"max=100"`
}

// Source is an attributed reference shown at the bottom of a slide.
type Source struct {
	Title string `json:"title" validate:"required,max=300"`
	Link  string `json:"link" validate:"required,url"`
}

// ImageResult is one candidate returned by the remote image search.
type ImageResult struct {
	ImageID         string `json:"imageId"`
	Caption         string `json:"caption"`
	PreviewURL      string `json:"previewUrl"`
	AuthorName      string `json:"authorName,omitempty"`
	AuthorHandle    string `json:"authorHandle,omitempty"`
	Orientation     string `json:"orientation,omitempty"`
	RetrievalMethod string `json:"retrievalMethod,omitempty"`
}

// GenerateResult is the remote service's answer to a slide generation call.
type GenerateResult struct {
	ImageURL            string `json:"imageUrl"`
	PresentationViewURL string `json:"presentationViewUrl"`
}

// ThemeResult is the remote service's answer to an apply-theme call.
type ThemeResult struct {
	Success             bool     `json:"success"`
	AppliedTheme        string   `json:"appliedTheme"`
	PerSlideURLs        []string `json:"perSlideUrls"`
	PresentationViewURL string   `json:"presentationViewUrl"`
}
