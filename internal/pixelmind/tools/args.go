package tools

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/multierr"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/imagefs"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/pkg/errorx"
)

// enumTags maps custom validation tags to the values the API accepts.
var enumTags = map[string][]string{
	"direction":      pixellab.Directions,
	"view":           pixellab.Views,
	"outline":        pixellab.Outlines,
	"shading":        pixellab.Shadings,
	"detail":         pixellab.Details,
	"skeleton_label": pixellab.SkeletonLabels,
}

// NewValidator returns a validator that knows the API enums and reports
// fields by their JSON argument names.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, values := range enumTags {
		allowed := values
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(allowed, fl.Field().String())
		}); err != nil {
			return nil, fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return v, nil
}

// OutputArgs are the output controls shared by image-producing tools.
type OutputArgs struct {
	SaveToFile string `json:"save_to_file,omitempty"`
	ShowImage  *bool  `json:"show_image,omitempty"`
}

func (o OutputArgs) showImage() bool {
	return o.ShowImage == nil || *o.ShowImage
}

// bind decodes the call arguments into args and validates them.
func (t *toolset) bind(req mcp.CallToolRequest, args any) error {
	if req.Params.Arguments != nil {
		if err := req.BindArguments(args); err != nil {
			return errorx.Local("arguments", err, "invalid arguments")
		}
	}
	return t.check(args)
}

func (t *toolset) check(args any) error {
	err := t.validate.Struct(args)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorx.Local("arguments", err, "invalid arguments")
	}
	var combined error
	for _, fe := range verrs {
		combined = multierr.Append(combined, fieldError(fe))
	}
	return errorx.Local("arguments", combined, "invalid arguments")
}

func fieldError(fe validator.FieldError) error {
	name := argName(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", name)
	case "min", "gte":
		if fe.Kind() == reflect.Slice {
			return fmt.Errorf("%s needs at least %s items", name, fe.Param())
		}
		return fmt.Errorf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.Slice {
			return fmt.Errorf("%s allows at most %s items", name, fe.Param())
		}
		return fmt.Errorf("%s must be at most %s", name, fe.Param())
	case "eq":
		return fmt.Errorf("%s must be %s", name, fe.Param())
	}
	if values, ok := enumTags[fe.Tag()]; ok {
		return fmt.Errorf("%s must be one of: %s (got %q)", name, strings.Join(values, ", "), fmt.Sprint(fe.Value()))
	}
	return fmt.Errorf("%s failed %s validation", name, fe.Tag())
}

// argName drops the root struct and embedded args structs from a validator
// namespace, leaving the JSON path the caller used.
func argName(namespace string) string {
	segs := strings.Split(namespace, ".")
	if len(segs) > 1 {
		segs = segs[1:]
	}
	kept := segs[:0]
	for _, s := range segs {
		if !strings.HasSuffix(s, "Args") {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ".")
}

// copyArgs copies same-named fields from args into an API request.
func copyArgs(req, args any) error {
	if err := copier.Copy(req, args); err != nil {
		return errorx.Local("arguments", err, "build request")
	}
	return nil
}

// readOptional reads path when it is set.
func readOptional(path string) (*pixellab.Base64Image, error) {
	if path == "" {
		return nil, nil
	}
	data, err := imagefs.ReadPNG(path)
	if err != nil {
		return nil, err
	}
	return pixellab.NewBase64Image(data), nil
}

// sizeFromImage fills zero dimensions from the image and checks the result
// against the endpoint bounds.
func (t *toolset) sizeFromImage(width, height int, image []byte, min, max int) (pixellab.ImageSize, error) {
	if width == 0 || height == 0 {
		w, h, err := imagefs.Dimensions(image)
		if err != nil {
			return pixellab.ImageSize{}, err
		}
		if width == 0 {
			width = w
		}
		if height == 0 {
			height = h
		}
	}
	rule := fmt.Sprintf("min=%d,max=%d", min, max)
	if t.validate.Var(width, rule) != nil || t.validate.Var(height, rule) != nil {
		return pixellab.ImageSize{}, errorx.Newf(errorx.KindLocal, "arguments",
			"image size %dx%d is outside %d..%d; pass width and height explicitly", width, height, min, max)
	}
	return pixellab.ImageSize{Width: width, Height: height}, nil
}
