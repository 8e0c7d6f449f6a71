package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/callgym/callgym-core/core/realtime"
)

const (
	sessionsURL = "https://api.openai.com/v1/realtime/sessions"
	realtimeURL = "wss://api.openai.com/v1/realtime"

	// DefaultModel is the realtime voice model used unless overridden.
	DefaultModel = "gpt-4o-realtime-preview"
)

// Client talks to the OpenAI realtime API: it mints short-lived client
// credentials for browser-held connections and opens server-held event
// channels.
type Client struct {
	apiKey string
	model  string
}

type ClientOption func(*Client)

// WithModel overrides the realtime model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key not provided")
	}

	c := &Client{apiKey: apiKey, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientSecret is an ephemeral realtime credential. The holder connects
// directly to the provider without ever seeing the long-lived API key.
type ClientSecret struct {
	Value     string
	ExpiresAt time.Time
}

// MintClientSecret creates a provider session preconfigured with the persona
// instructions, voice, and VAD tuning, and returns its ephemeral credential.
func (c *Client) MintClientSecret(ctx context.Context, opts ...realtime.SessionOption) (ClientSecret, error) {
	ctx, span := tracer.Start(ctx, "mint realtime client secret")
	defer span.End()

	options := realtime.NewSessionOptions(opts...)

	payload := newSessionPayload(options)
	payload.Model = c.model

	body, err := json.Marshal(payload)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		return ClientSecret{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", sessionsURL, bytes.NewBuffer(body))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return ClientSecret{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return ClientSecret{}, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return ClientSecret{}, err
	}

	var responseBody struct {
		ClientSecret struct {
			Value     string `json:"value"`
			ExpiresAt int64  `json:"expires_at"`
		} `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		return ClientSecret{}, err
	}
	if responseBody.ClientSecret.Value == "" {
		err := fmt.Errorf("response contained no client secret")
		span.RecordError(err)
		return ClientSecret{}, err
	}

	return ClientSecret{
		Value:     responseBody.ClientSecret.Value,
		ExpiresAt: time.Unix(responseBody.ClientSecret.ExpiresAt, 0),
	}, nil
}

type sessionPayload struct {
	Model                   string             `json:"model,omitempty"`
	Modalities              []string           `json:"modalities"`
	Instructions            string             `json:"instructions"`
	Voice                   string             `json:"voice"`
	Temperature             float64            `json:"temperature"`
	InputAudioTranscription *transcriptionSpec `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetection     `json:"turn_detection,omitempty"`
}

type transcriptionSpec struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

func newSessionPayload(options realtime.SessionOptions) sessionPayload {
	payload := sessionPayload{
		Modalities:   []string{"audio", "text"},
		Instructions: options.Instructions,
		Voice:        options.Voice,
		Temperature:  options.Temperature,
		TurnDetection: &turnDetection{
			Type:              "server_vad",
			Threshold:         options.VAD.Threshold,
			PrefixPaddingMs:   options.VAD.PrefixPaddingMs,
			SilenceDurationMs: options.VAD.SilenceDurationMs,
		},
	}
	if options.TranscriptionModel != "" {
		payload.InputAudioTranscription = &transcriptionSpec{Model: options.TranscriptionModel}
	}
	return payload
}
