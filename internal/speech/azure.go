package speech

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

const (
	// DefaultVoice is the Azure neural voice used for narration.
	DefaultVoice = "en-US-AvaMultilingualNeural"
	// DefaultAudioFormat is a WAV format the player can decode directly.
	DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"
)

// AzureOption configures the Azure TTS synthesizer.
type AzureOption func(*AzureSynthesizer)

// WithVoice sets the TTS voice name.
func WithVoice(voice string) AzureOption {
	return func(s *AzureSynthesizer) {
		if voice != "" {
			s.voice = voice
		}
	}
}

// WithAudioFormat sets the requested audio output format.
func WithAudioFormat(format string) AzureOption {
	return func(s *AzureSynthesizer) {
		s.format = format
	}
}

// WithSynthTimeout sets the HTTP timeout for synthesis requests.
func WithSynthTimeout(d time.Duration) AzureOption {
	return func(s *AzureSynthesizer) {
		s.httpClient.Timeout = d
	}
}

// Compile-time interface check.
var _ Synthesizer = (*AzureSynthesizer)(nil)

// AzureSynthesizer produces speech audio via the Azure Cognitive Services
// text-to-speech REST endpoint.
type AzureSynthesizer struct {
	key        string
	region     string
	voice      string
	format     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewAzureSynthesizer creates a synthesizer for the given subscription.
func NewAzureSynthesizer(key, region string, log *logger.Logger, opts ...AzureOption) *AzureSynthesizer {
	s := &AzureSynthesizer{
		key:    key,
		region: region,
		voice:  DefaultVoice,
		format: DefaultAudioFormat,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Voice returns the configured voice name.
func (s *AzureSynthesizer) Voice() string { return s.voice }

// Synthesize converts text into WAV audio bytes.
func (s *AzureSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", s.region)

	s.log.Debug("tts: synthesizing %d chars with voice %s", len(text), s.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(s.buildSSML(text)))
	if err != nil {
		return nil, fmt.Errorf("creating tts request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", s.format)
	req.Header.Set("User-Agent", "souschef/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("tts auth rejected (%d): %w", resp.StatusCode, domain.ErrInvalidAPIKey)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts error %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tts audio: %w", err)
	}
	s.log.Debug("tts: received %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps text in the SSML document Azure expects. Text is
// XML-escaped so recipe names with & or < don't break the request.
func (s *AzureSynthesizer) buildSSML(text string) string {
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(text))

	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		s.voice, escaped.String(),
	)
}
