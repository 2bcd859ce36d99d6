package pixellab

import (
	"encoding/base64"
	"fmt"
)

// Camera directions accepted by the API.
const (
	DirectionSouth     = "south"
	DirectionSouthEast = "south-east"
	DirectionEast      = "east"
	DirectionNorthEast = "north-east"
	DirectionNorth     = "north"
	DirectionNorthWest = "north-west"
	DirectionWest      = "west"
	DirectionSouthWest = "south-west"
)

// Camera views accepted by the API.
const (
	ViewSide        = "side"
	ViewLowTopDown  = "low top-down"
	ViewHighTopDown = "high top-down"
)

var (
	Directions = []string{
		DirectionSouth, DirectionSouthEast, DirectionEast, DirectionNorthEast,
		DirectionNorth, DirectionNorthWest, DirectionWest, DirectionSouthWest,
	}
	Views    = []string{ViewSide, ViewLowTopDown, ViewHighTopDown}
	Outlines = []string{"single color black outline", "single color outline", "selective outline", "lineless"}
	Shadings = []string{"flat shading", "basic shading", "medium shading", "detailed shading", "highly detailed shading"}
	Details  = []string{"low detail", "medium detail", "highly detailed"}

	// SkeletonLabels are the keypoint names used by skeleton estimation and
	// skeleton animation.
	SkeletonLabels = []string{
		"NOSE", "NECK",
		"RIGHT SHOULDER", "RIGHT ELBOW", "RIGHT ARM",
		"LEFT SHOULDER", "LEFT ELBOW", "LEFT ARM",
		"RIGHT HIP", "RIGHT KNEE", "RIGHT LEG",
		"LEFT HIP", "LEFT KNEE", "LEFT LEG",
		"RIGHT EYE", "LEFT EYE", "RIGHT EAR", "LEFT EAR",
	}
)

// ImageSize is the pixel size of a generated image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s ImageSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Base64Image is the API's image envelope.
type Base64Image struct {
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}

// NewBase64Image wraps raw image bytes, or returns nil for nil data.
func NewBase64Image(data []byte) *Base64Image {
	if data == nil {
		return nil
	}
	return &Base64Image{Type: "base64", Base64: base64.StdEncoding.EncodeToString(data)}
}

// Decode returns the raw image bytes.
func (b *Base64Image) Decode() ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("missing image in response")
	}
	return base64.StdEncoding.DecodeString(b.Base64)
}

// Usage is the cost record attached to every billed call.
type Usage struct {
	Type string  `json:"type"`
	USD  float64 `json:"usd"`
}

// Keypoint is one labelled 2D skeleton point.
type Keypoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Label  string  `json:"label"`
	ZIndex float64 `json:"z_index"`
}

// PixfluxRequest generates an image from a text description.
type PixfluxRequest struct {
	Description         string       `json:"description"`
	NegativeDescription string       `json:"negative_description,omitempty"`
	ImageSize           ImageSize    `json:"image_size"`
	TextGuidanceScale   float64      `json:"text_guidance_scale,omitempty"`
	Outline             string       `json:"outline,omitempty"`
	Shading             string       `json:"shading,omitempty"`
	Detail              string       `json:"detail,omitempty"`
	View                string       `json:"view,omitempty"`
	Direction           string       `json:"direction,omitempty"`
	Isometric           bool         `json:"isometric"`
	NoBackground        bool         `json:"no_background"`
	InitImage           *Base64Image `json:"init_image,omitempty"`
	InitImageStrength   int          `json:"init_image_strength,omitempty"`
	ColorImage          *Base64Image `json:"color_image,omitempty"`
	Seed                *int         `json:"seed,omitempty"`
}

// BitforgeRequest generates an image guided by a style reference.
type BitforgeRequest struct {
	Description         string       `json:"description"`
	NegativeDescription string       `json:"negative_description,omitempty"`
	ImageSize           ImageSize    `json:"image_size"`
	TextGuidanceScale   float64      `json:"text_guidance_scale,omitempty"`
	ExtraGuidanceScale  float64      `json:"extra_guidance_scale,omitempty"`
	StyleStrength       float64      `json:"style_strength,omitempty"`
	Outline             string       `json:"outline,omitempty"`
	Shading             string       `json:"shading,omitempty"`
	Detail              string       `json:"detail,omitempty"`
	View                string       `json:"view,omitempty"`
	Direction           string       `json:"direction,omitempty"`
	Isometric           bool         `json:"isometric"`
	ObliqueProjection   bool         `json:"oblique_projection"`
	NoBackground        bool         `json:"no_background"`
	StyleImage          *Base64Image `json:"style_image,omitempty"`
	InitImage           *Base64Image `json:"init_image,omitempty"`
	InitImageStrength   int          `json:"init_image_strength,omitempty"`
	ColorImage          *Base64Image `json:"color_image,omitempty"`
	Seed                *int         `json:"seed,omitempty"`
}

// RotateRequest re-renders a character facing another direction or view.
type RotateRequest struct {
	ImageSize          ImageSize    `json:"image_size"`
	FromImage          *Base64Image `json:"from_image"`
	FromView           string       `json:"from_view,omitempty"`
	ToView             string       `json:"to_view,omitempty"`
	FromDirection      string       `json:"from_direction,omitempty"`
	ToDirection        string       `json:"to_direction,omitempty"`
	ImageGuidanceScale float64      `json:"image_guidance_scale,omitempty"`
	Isometric          bool         `json:"isometric"`
	ObliqueProjection  bool         `json:"oblique_projection"`
	ColorImage         *Base64Image `json:"color_image,omitempty"`
	Seed               *int         `json:"seed,omitempty"`
}

// InpaintRequest repaints the masked region of an image.
type InpaintRequest struct {
	Description         string       `json:"description"`
	NegativeDescription string       `json:"negative_description,omitempty"`
	ImageSize           ImageSize    `json:"image_size"`
	TextGuidanceScale   float64      `json:"text_guidance_scale,omitempty"`
	ExtraGuidanceScale  float64      `json:"extra_guidance_scale,omitempty"`
	Outline             string       `json:"outline,omitempty"`
	Shading             string       `json:"shading,omitempty"`
	Detail              string       `json:"detail,omitempty"`
	View                string       `json:"view,omitempty"`
	Direction           string       `json:"direction,omitempty"`
	Isometric           bool         `json:"isometric"`
	ObliqueProjection   bool         `json:"oblique_projection"`
	NoBackground        bool         `json:"no_background"`
	InpaintingImage     *Base64Image `json:"inpainting_image"`
	MaskImage           *Base64Image `json:"mask_image"`
	ColorImage          *Base64Image `json:"color_image,omitempty"`
	Seed                *int         `json:"seed,omitempty"`
}

// EstimateSkeletonRequest asks for the keypoints of a character image.
type EstimateSkeletonRequest struct {
	Image *Base64Image `json:"image"`
}

// AnimateWithSkeletonRequest renders one frame per keypoint set.
type AnimateWithSkeletonRequest struct {
	ImageSize         ImageSize      `json:"image_size"`
	ReferenceImage    *Base64Image   `json:"reference_image"`
	SkeletonKeypoints [][]Keypoint   `json:"skeleton_keypoints"`
	GuidanceScale     float64        `json:"guidance_scale,omitempty"`
	View              string         `json:"view,omitempty"`
	Direction         string         `json:"direction,omitempty"`
	Isometric         bool           `json:"isometric"`
	ObliqueProjection bool           `json:"oblique_projection"`
	InpaintingImages  []*Base64Image `json:"inpainting_images,omitempty"`
	MaskImages        []*Base64Image `json:"mask_images,omitempty"`
	ColorImage        *Base64Image   `json:"color_image,omitempty"`
	Seed              *int           `json:"seed,omitempty"`
}

// AnimateWithTextRequest renders an action described in text.
type AnimateWithTextRequest struct {
	ImageSize           ImageSize    `json:"image_size"`
	Description         string       `json:"description"`
	NegativeDescription string       `json:"negative_description,omitempty"`
	Action              string       `json:"action"`
	ReferenceImage      *Base64Image `json:"reference_image"`
	View                string       `json:"view,omitempty"`
	Direction           string       `json:"direction,omitempty"`
	NFrames             int          `json:"n_frames,omitempty"`
	StartFrameIndex     int          `json:"start_frame_index"`
	TextGuidanceScale   float64      `json:"text_guidance_scale,omitempty"`
	ImageGuidanceScale  float64      `json:"image_guidance_scale,omitempty"`
	ColorImage          *Base64Image `json:"color_image,omitempty"`
	Seed                *int         `json:"seed,omitempty"`
}

// ImageResult is a single generated image with its cost.
type ImageResult struct {
	Image []byte
	Usage Usage
}

// SkeletonResult is the estimated keypoints with their cost.
type SkeletonResult struct {
	Keypoints []Keypoint
	Usage     Usage
}

// AnimationResult holds the frames of an animation in order.
type AnimationResult struct {
	Frames [][]byte
	Usage  Usage
}

// Balance is the remaining account credit.
type Balance struct {
	Type string  `json:"type"`
	USD  float64 `json:"usd"`
}

type imageResponse struct {
	Image *Base64Image `json:"image"`
	Usage Usage        `json:"usage"`
}

type imagesResponse struct {
	Images []*Base64Image `json:"images"`
	Usage  Usage          `json:"usage"`
}

type skeletonResponse struct {
	Keypoints []Keypoint `json:"keypoints"`
	Usage     Usage      `json:"usage"`
}
