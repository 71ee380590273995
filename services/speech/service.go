package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service synthesizes a reply and stores the audio. Any failure is
// reported to the caller, which falls back to plain spoken text; the call
// itself never fails because of the voice.
type Service struct {
	Synth  Synthesizer
	Store  AudioStore
	Logger *zap.Logger
}

// NewService wires a Synthesizer with an AudioStore.
func NewService(synth Synthesizer, store AudioStore, logger *zap.Logger) *Service {
	return &Service{Synth: synth, Store: store, Logger: logger}
}

// AudioURL synthesizes text and returns a playable URL.
func (s *Service) AudioURL(ctx context.Context, callSID, suffix, text string) (string, error) {
	audio, err := s.Synth.Synthesize(ctx, text)
	if err != nil {
		s.Logger.Warn("speech synthesis failed",
			zap.String("callSid", callSID),
			zap.Error(err))
		return "", err
	}

	filename := fmt.Sprintf("tts_%s_%s_%d_%s.mp3", callSID, suffix, time.Now().Unix(), uuid.New().String()[:8])
	url, err := s.Store.Put(ctx, filename, audio)
	if err != nil {
		s.Logger.Warn("audio store failed",
			zap.String("callSid", callSID),
			zap.Error(err))
		return "", err
	}
	return url, nil
}
