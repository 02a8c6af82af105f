package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/texttospeech"
)

const speakURL = "https://api.deepgram.com/v1/speak"

type deepgramVoice string

const (
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"
	VoiceArcas   deepgramVoice = "aura-2-arcas-en"

	defaultVoice = VoiceThalia
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{VoiceThalia, VoiceAsteria, VoiceOrion, VoiceArcas}
}

type SynthesisClient struct {
	apiKey     string
	voice      deepgramVoice
	httpClient *http.Client
}

type ClientOption func(*SynthesisClient)

// WithAPIKey overrides the key read from DEEPGRAM_API_KEY.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *SynthesisClient) { c.apiKey = apiKey }
}

func NewSynthesisClient(voice deepgramVoice, opts ...ClientOption) (*SynthesisClient, error) {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	client := &SynthesisClient{
		voice:      voice,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

func (c *SynthesisClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}

// Synthesize converts text into a complete audio buffer through the speak
// REST endpoint.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	options := texttospeech.SynthesisOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	voice := c.voice
	if options.Voice != "" {
		voice = deepgramVoice(options.Voice)
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	span.SetAttributes(
		attribute.String("request.model", string(voice)),
		attribute.Int("request.text_length", len(text)),
	)

	requestBodyBytes, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakURL+"?"+urlValues.Encode(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

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
