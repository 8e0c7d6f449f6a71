package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/callgym/callgym-core/core/events"
	"github.com/callgym/callgym-core/core/realtime"
)

var _ realtime.Channel = (*Channel)(nil)

// Channel is a server-held realtime connection. Protocol events arriving on
// the websocket are decoded into typed events and handed to the registered
// callback in arrival order; unrecognized message types are dropped.
type Channel struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	closeOnce sync.Once
	closeErr  error

	options realtime.SessionOptions
}

// Connect opens the realtime websocket, applies the session configuration,
// and starts the read loop. The loop stops when the connection closes or ctx
// is cancelled.
func (c *Client) Connect(ctx context.Context, opts ...realtime.SessionOption) (*Channel, error) {
	options := realtime.NewSessionOptions(opts...)

	connectURL, _ := url.Parse(realtimeURL)
	queryParams := connectURL.Query()
	queryParams.Set("model", c.model)
	connectURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, connectURL.String(), http.Header{
		"Authorization": {"Bearer " + c.apiKey},
		"OpenAI-Beta":   {"realtime=v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to openai: %w", err)
	}

	ch := &Channel{conn: conn, options: options}

	if err := ch.sendWebsocketMessage(struct {
		Type    string         `json:"type"`
		Session sessionPayload `json:"session"`
	}{Type: "session.update", Session: newSessionPayload(options)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure realtime session: %w", err)
	}

	go ch.readAndProcessMessages(ctx, conn)

	return ch, nil
}

// SendAudio forwards one chunk of rep microphone audio to the remote agent.
func (ch *Channel) SendAudio(audio []byte) error {
	return ch.sendWebsocketMessage(struct {
		Type  string `json:"type"`
		Audio string `json:"audio"`
	}{Type: "input_audio_buffer.append", Audio: base64.StdEncoding.EncodeToString(audio)})
}

// CreateResponse asks the remote agent to produce its next spoken response.
// Used once after configuration so the agent, not the rep, opens the call.
func (ch *Channel) CreateResponse() error {
	return ch.sendWebsocketMessage(struct {
		Type string `json:"type"`
	}{Type: "response.create"})
}

// Close tears the connection down. Safe to call more than once; repeat calls
// return the first outcome.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		ch.connMu.Lock()
		defer ch.connMu.Unlock()

		if ch.conn == nil {
			return
		}
		if err := ch.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			ch.closeErr = ch.conn.Close()
			return
		}
		ch.closeErr = ch.conn.Close()
	})
	return ch.closeErr
}

func (ch *Channel) sendWebsocketMessage(msg any) error {
	ch.connMu.Lock()
	defer ch.connMu.Unlock()

	if ch.conn == nil {
		return fmt.Errorf("websocket connection closed")
	}
	if err := ch.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

func (ch *Channel) readAndProcessMessages(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			_ = ch.Close()
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Println("Failed to read openai realtime message", "error", err)
			}
			_ = ch.Close()
			return
		}

		ch.processMessage(msg)
	}
}

// processMessage decodes one protocol message and emits the matching typed
// event. Messages outside the recognized set are dropped without emitting
// anything.
func (ch *Channel) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal openai realtime message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case "session.updated":
		ch.emit(events.NewSessionReady())

	case "input_audio_buffer.speech_started":
		ch.emit(events.NewRepSpeechStarted())

	case "input_audio_buffer.speech_stopped":
		ch.emit(events.NewRepSpeechEnded())

	case "response.created":
		ch.emit(events.NewProspectResponseStarted())

	case "response.done":
		ch.emit(events.NewProspectResponseEnded())

	case "response.audio.delta":
		if ch.options.AudioCallback == nil {
			return
		}
		var msgResp struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal openai realtime message", err)
			return
		}
		audio, err := base64.StdEncoding.DecodeString(msgResp.Delta)
		if err != nil {
			log.Println("Failed to decode realtime audio chunk", err)
			return
		}
		ch.options.AudioCallback(audio)

	case "response.audio_transcript.delta":
		var msgResp struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal openai realtime message", err)
			return
		}
		ch.emit(events.NewProspectTranscriptDelta(msgResp.Delta))

	case "response.audio_transcript.done":
		var msgResp struct {
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal openai realtime message", err)
			return
		}
		ch.emit(events.NewProspectTranscriptFinal(msgResp.Transcript))

	case "conversation.item.input_audio_transcription.completed":
		var msgResp struct {
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal openai realtime message", err)
			return
		}
		ch.emit(events.NewRepTranscriptFinal(msgResp.Transcript))

	case "error":
		var msgResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal openai realtime message", err)
			return
		}
		ch.emit(events.NewSessionError(msgResp.Error.Message))
	}
}

func (ch *Channel) emit(event events.Event) {
	if ch.options.EventCallback != nil {
		ch.options.EventCallback(event)
	}
}
