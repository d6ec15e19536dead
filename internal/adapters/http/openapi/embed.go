// Package openapi embeds the JSON API contract.
package openapi

import _ "embed"

//go:embed openapi.json
var Spec []byte
