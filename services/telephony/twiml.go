package telephony

import (
	"github.com/twilio/twilio-go/twiml"
)

// Prompter renders voice-prompt markup for webhook responses. Replies
// either gather the next utterance or speak and hang up; synthesized audio
// is played when a URL is available, otherwise the provider's basic
// text-to-speech reads the reply.
type Prompter struct {
	// ActionURL receives the next utterance callback.
	ActionURL string
}

// NewPrompter creates a Prompter posting utterances to actionURL.
func NewPrompter(actionURL string) *Prompter {
	return &Prompter{ActionURL: actionURL}
}

// Render produces the TwiML for one reply.
func (p *Prompter) Render(text, audioURL string, terminate bool) (string, error) {
	voice := p.speak(text, audioURL)
	if terminate {
		return twiml.Voice(append(voice, &twiml.VoiceHangup{}))
	}

	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        p.ActionURL,
		Method:        "POST",
		SpeechTimeout: "auto",
		InnerElements: voice,
	}
	return twiml.Voice([]twiml.Element{gather})
}

func (p *Prompter) speak(text, audioURL string) []twiml.Element {
	if audioURL != "" {
		return []twiml.Element{&twiml.VoicePlay{Url: audioURL}}
	}
	return []twiml.Element{&twiml.VoiceSay{Message: text}}
}
