package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecURL is where the router serves api/openapi.yml.
const SpecURL = "/openapi.yml"

// Handler serves Swagger UI for the reimbursement API document.
func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(SpecURL),
		httpSwagger.DocExpansion("list"),
	)
}
