package speech

import (
	"context"
	"fmt"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	appLog "weeklybrief/internal/log"
	"weeklybrief/internal/model"
)

// Google Cloud TTS MP3 output is encoded at 32 kbit/s; used only to
// estimate episode duration from the byte length.
const mp3BitsPerSecond = 32000

// Voice defaults derived from the brief language.
const (
	voiceEN    = "en-US-Neural2-D"
	voiceCS    = "cs-CZ-Wavenet-B"
	langCodeEN = "en-US"
	langCodeCS = "cs-CZ"
)

// Synthesizer converts brief text to a single MP3 artifact via Google Cloud
// Text-to-Speech.
type Synthesizer struct {
	voice        string
	languageCode string

	// maxDuration is the advisory ceiling; exceeding it only logs.
	maxDuration time.Duration
}

// New creates a Synthesizer for the given brief language. voiceOverride and
// langCodeOverride, when non-empty, replace the language-derived defaults.
func New(language, voiceOverride, langCodeOverride string, maxDuration time.Duration) *Synthesizer {
	voice, langCode := voiceEN, langCodeEN
	if language == "cs" {
		voice, langCode = voiceCS, langCodeCS
	}
	if voiceOverride != "" {
		voice = voiceOverride
	}
	if langCodeOverride != "" {
		langCode = langCodeOverride
	}
	return &Synthesizer{voice: voice, languageCode: langCode, maxDuration: maxDuration}
}

// Synthesize converts text into one MP3 byte stream. A total failure here is
// fatal to the run; there is no partial output to publish.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (model.AudioArtifact, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return model.AudioArtifact{}, fmt.Errorf("create TTS client: %w", err)
	}
	defer client.Close()

	resp, err := client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.languageCode,
			Name:         s.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			// Slightly slower for calm narration.
			SpeakingRate:    0.9,
			SampleRateHertz: 24000,
		},
	})
	if err != nil {
		return model.AudioArtifact{}, fmt.Errorf("synthesize speech: %w", err)
	}

	art := model.AudioArtifact{
		MP3:      resp.AudioContent,
		Duration: EstimateDuration(len(resp.AudioContent)),
	}

	if s.maxDuration > 0 && art.Duration > s.maxDuration {
		appLog.Warn("episode exceeds duration ceiling", "duration", art.Duration.Round(time.Second),
			"ceiling", s.maxDuration)
	}

	appLog.Info("speech synthesized", "voice", s.voice, "bytes", len(art.MP3),
		"duration", art.Duration.Round(time.Second))
	return art, nil
}

// EstimateDuration derives a nominal duration from the MP3 byte length.
func EstimateDuration(byteLen int) time.Duration {
	seconds := float64(byteLen*8) / mp3BitsPerSecond
	return time.Duration(seconds * float64(time.Second))
}
