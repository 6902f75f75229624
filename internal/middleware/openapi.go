package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// OpenAPIValidator validates request bodies and parameters against an
// OpenAPI document. Routes the document does not describe pass through.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewOpenAPIValidator parses and validates the document.
func NewOpenAPIValidator(ctx context.Context, spec []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// Document returns the parsed document.
func (v *OpenAPIValidator) Document() *openapi3.T {
	return v.doc
}

// Middleware answers invalid requests with 400 {"error"}.
func (v *OpenAPIValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			log.Printf("[openapi] rejected %s %s: %v", r.Method, r.URL.Path, err)
			utils.RespondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	if reqErr, ok := err.(*openapi3filter.RequestError); ok {
		if reqErr.RequestBody != nil {
			return "invalid request body"
		}
		if reqErr.Parameter != nil {
			return fmt.Sprintf("invalid parameter %q", reqErr.Parameter.Name)
		}
	}
	return "invalid request"
}
