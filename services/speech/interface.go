package speech

import "context"

// Synthesizer turns reply text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists synthesized audio and returns a URL the telephony
// provider can fetch.
type AudioStore interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}
