package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const elevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech/%s"

// ElevenLabsSynthesizer calls the ElevenLabs REST text-to-speech API.
type ElevenLabsSynthesizer struct {
	APIKey  string
	VoiceID string
	client  *http.Client
}

// NewElevenLabsSynthesizer creates a synthesizer with a short fixed timeout;
// a slow synthesis call must never stall the reply path.
func NewElevenLabsSynthesizer(apiKey, voiceID string) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{
		APIKey:  apiKey,
		VoiceID: voiceID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Synthesize returns MP3 bytes for the given text.
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.APIKey == "" || s.VoiceID == "" {
		return nil, fmt.Errorf("elevenlabs credentials not configured")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.5,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(elevenLabsEndpoint, s.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, detail)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}
	return audio, nil
}
