// Package schemas embeds the JSON Schemas of the selection plan and selection config.
package schemas

import "embed"

// Schema file names within FS
const (
	SelectionPlan   = "selection_plan.schema.json"
	SelectionConfig = "selection_config.schema.json"
)

// FS holds every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS
