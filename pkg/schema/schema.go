package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var (
	VideoScriptSchema = generateSchema[VideoScript]()
	ImagePromptSchema = generateSchema[ImagePrompt]()
)

func responseFormat(name, description string, schema any) openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}

// ScriptResponseFormat constrains a completion to the VideoScript schema.
func ScriptResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("video_script", "Recurring characters and the ordered clips of a short video", VideoScriptSchema)
}

// ImagePromptResponseFormat constrains a completion to the ImagePrompt schema.
func ImagePromptResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("image_prompt", "Detailed structured prompt for a single generated image", ImagePromptSchema)
}

// SchemaOf returns the JSON schema carried by a response format, or nil.
func SchemaOf(format openai.ChatCompletionNewParamsResponseFormatUnion) any {
	if format.OfJSONSchema == nil {
		return nil
	}
	return format.OfJSONSchema.JSONSchema.Schema
}
