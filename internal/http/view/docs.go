package view

import _ "embed"

// OpenAPI is the OpenAPI 3 document describing the /api/uri surface.
//
//go:embed openapi.json
var OpenAPI []byte
