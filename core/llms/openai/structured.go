package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/callgym/callgym-core/core/llms"
)

const url = "https://api.openai.com/v1/chat/completions"

// Client calls the OpenAI chat completions API for structured generation.
type Client struct {
	apiKey string
	model  string
}

func NewClient(apiKey string, model string) *Client {
	return &Client{apiKey: apiKey, model: model}
}

// PromptJSON requests a single JSON object response and returns the raw
// generated text. The caller owns the strict decode: generated output has no
// reliable sub-field guarantees until the whole object parses.
func (c *Client) PromptJSON(
	ctx context.Context,
	prompt string,
	opts ...llms.StructuredPromptOption,
) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()

	options := llms.StructuredPromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := []message{}
	if options.Instructions != "" {
		messages = append(messages, message{Role: messageRoleSystem, Content: options.Instructions})
	}
	messages = append(messages, message{Role: messageRoleUser, Content: prompt})

	reqBody := requestBody{
		Model:          c.model,
		Messages:       messages,
		Temperature:    options.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	if options.OutputSchema != nil {
		reflector := jsonschema.Reflector{DoNotReference: true}
		var schema *jsonschema.Schema
		if reflect.TypeOf(options.OutputSchema).Kind() == reflect.Ptr {
			schema = reflector.ReflectFromType(reflect.TypeOf(options.OutputSchema).Elem())
		} else {
			schema = reflector.Reflect(options.OutputSchema)
		}
		reqBody.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   options.SchemaName,
				Schema: *schema,
				Strict: true,
			},
		}
		schemaString, _ := schema.MarshalJSON()
		span.SetAttributes(attribute.String("request.schema", string(schemaString)))
	}

	span.SetAttributes(attribute.String("request.model", c.model))

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return "", err
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		return "", err
	}

	var responseBody completionResponse
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		return "", err
	}
	if len(responseBody.Choices) == 0 {
		err := fmt.Errorf("response contained no choices")
		span.RecordError(err)
		return "", err
	}

	content := responseBody.Choices[0].Message.Content
	// Some models wrap JSON responses in markdown fences despite the
	// requested response format.
	if split := strings.Split(content, "```"); len(split) > 1 {
		content = split[1]
		content = strings.TrimPrefix(content, "json")
	}

	return content, nil
}

type messageRole string

const (
	messageRoleSystem messageRole = "system"
	messageRoleUser   messageRole = "user"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name string `json:"name"`
	// Schema is the reflected JSON schema the generated content must match.
	Schema jsonschema.Schema `json:"schema"`
	// Strict determines whether to enforce the schema upon the generated
	// content.
	Strict bool `json:"strict"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
