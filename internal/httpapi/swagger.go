//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"expertchat/internal/apidocs"
)

// MountSwagger serves the OpenAPI document and Swagger UI under /swagger.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.InstanceName(apidocs.InstanceName)))
}
