package ai

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// jobPostingSchemaJSON describes the record shape the extraction prompt asks for.
// It is only used to report drift; nonconforming records are still returned.
const jobPostingSchemaJSON = `{
	"type": "object",
	"properties": {
		"role":        {"type": "string"},
		"experience":  {"type": ["integer", "null"]},
		"skills":      {"type": "array", "items": {"type": "string"}},
		"description": {"type": "string"}
	},
	"required": ["role", "experience", "skills", "description"]
}`

var jobPostingSchema = mustCompileSchema(jobPostingSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile job posting schema: %v", err))
	}
	return schema
}

// shapeProblems lists how record deviates from the job posting schema. Empty means it conforms.
func shapeProblems(record any) []string {
	result, err := jobPostingSchema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems
}
