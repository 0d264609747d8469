// Package schemas embeds the JSON Schemas used to validate inbound check
// requests and lint rule-set files.
package schemas

import _ "embed"

//go:embed check_request.schema.json
var CheckRequestSchemaJSON string

//go:embed ruleset.schema.json
var RuleSetSchemaJSON string
