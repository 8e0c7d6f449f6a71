// Package llms defines the narrow contract this module has with text
// generation providers: a prompt goes in, text or an error comes out.
// Provider subpackages implement the transport.
package llms

// StructuredPromptOptions configure a single structured-generation request.
type StructuredPromptOptions struct {
	Instructions string
	Temperature  *float64

	// OutputSchema, when set, is reflected into a JSON schema and sent as the
	// requested response format. The provider still returns raw text; callers
	// own the strict decode.
	OutputSchema any
	SchemaName   string
}

type StructuredPromptOption func(*StructuredPromptOptions)

// WithSystemPrompt sets the system prompt for the request. Repeating this
// option overwrites the previous system prompt.
func WithSystemPrompt(prompt string) StructuredPromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTemperature sets the sampling temperature. Structured callers keep this
// low to favor consistency over variety.
func WithTemperature(temperature float64) StructuredPromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.Temperature = &temperature
	}
}

// WithOutputSchema requests that the response conform to the JSON schema
// reflected from the given value.
func WithOutputSchema(name string, schema any) StructuredPromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.SchemaName = name
		opts.OutputSchema = schema
	}
}
