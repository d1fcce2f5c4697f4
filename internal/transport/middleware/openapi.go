package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

// RequestValidator checks request bodies and parameters against the
// OpenAPI document before the handler runs. Paths in the document are
// relative to prefix.
type RequestValidator struct {
	router routers.Router
	prefix string
}

func NewRequestValidator(ctx context.Context, spec []byte, prefix string) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	// routing is done on the prefix-stripped path, so server urls are irrelevant here
	doc.Servers = nil

	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &RequestValidator{router: router, prefix: strings.TrimRight(prefix, "/")}, nil
}

// Handler passes through requests for operations the document does not describe.
func (v *RequestValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				writeAppError(w, appErrors.NewValidationError("Invalid request body", appErrors.ErrCodeInvalidBody))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		probe := r.Clone(r.Context())
		probe.URL.Path = strings.TrimPrefix(r.URL.Path, v.prefix)
		probe.URL.RawPath = ""
		probe.Body = io.NopCloser(bytes.NewReader(body))

		route, params, err := v.router.FindRoute(probe)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    probe,
			PathParams: params,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			logger.From(r.Context()).Warn("request rejected by openapi validation", "path", r.URL.Path, "error", err)
			writeAppError(w, validationError(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validationError(err error) *appErrors.AppError {
	message := "Request does not match the API schema"
	field := "body"

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			if path := schemaErr.JSONPointer(); len(path) > 0 {
				field = strings.Join(path, ".")
			}
			message = schemaErr.Reason
		} else if reqErr.Reason != "" {
			message = reqErr.Reason
		}
	}

	return appErrors.NewValidationFieldError(field, message, appErrors.ErrCodeValidationFailed)
}
