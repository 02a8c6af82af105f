package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/texttospeech"
)

const (
	baseURL      = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultModel = "eleven_turbo_v2_5"
	// Adam pre-made voice.
	defaultVoiceID = "pNInz6obpgDQGcFmaJgB"
)

type SynthesisClient struct {
	apiKey     string
	voiceID    string
	model      string
	httpClient *http.Client
}

type ClientOption func(*SynthesisClient)

// WithVoiceID overrides the default voice.
func WithVoiceID(voiceID string) ClientOption {
	return func(c *SynthesisClient) { c.voiceID = voiceID }
}

// WithModel overrides the default model.
func WithModel(model string) ClientOption {
	return func(c *SynthesisClient) { c.model = model }
}

// WithAPIKey overrides the key read from the environment.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *SynthesisClient) { c.apiKey = apiKey }
}

func NewSynthesisClient(opts ...ClientOption) (*SynthesisClient, error) {
	client := &SynthesisClient{
		voiceID:    defaultVoiceID,
		model:      defaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("ELEVENLABS_API_KEY")
		if !ok {
			// The XI_API_KEY name predates the ElevenLabs rebrand and is
			// still what most deployments set.
			apiKey, ok = os.LookupEnv("XI_API_KEY")
		}
		if !ok {
			return nil, fmt.Errorf("elevenlabs api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type requestBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize converts text into a complete audio buffer in the requested
// encoding. It returns only once the full utterance has been synthesized.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	options := texttospeech.SynthesisOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	outputFormat, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		err = fmt.Errorf("invalid encoding: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	voiceID := c.voiceID
	if options.Voice != "" {
		voiceID = options.Voice
	}
	span.SetAttributes(
		attribute.String("request.voice_id", voiceID),
		attribute.String("request.output_format", outputFormat),
		attribute.Int("request.text_length", len(text)),
	)

	requestBodyBytes, err := json.Marshal(requestBody{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       0.0,
			SimilarityBoost: 1.0,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/%s?output_format=%s", baseURL, url.PathEscape(voiceID), url.QueryEscape(outputFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Xi-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", len(body)))
	return body, nil
}

// convertEncoding maps an encoding to the matching ElevenLabs output format.
func convertEncoding(encoding audio.EncodingInfo) (string, error) {
	switch encoding.Format {
	case audio.EncodingLinear16:
		switch encoding.SampleRate {
		case 8000, 16000, 22050, 24000, 44100, 48000:
			return fmt.Sprintf("pcm_%d", encoding.SampleRate), nil
		}
		return "", fmt.Errorf("unsupported sample rate for pcm output")
	case audio.EncodingMulaw:
		if encoding.SampleRate != 8000 {
			return "", fmt.Errorf("unsupported sample rate for ulaw output")
		}
		return "ulaw_8000", nil
	case audio.EncodingALaw:
		if encoding.SampleRate != 8000 {
			return "", fmt.Errorf("unsupported sample rate for alaw output")
		}
		return "alaw_8000", nil
	}
	return "", fmt.Errorf("unsupported encoding")
}
