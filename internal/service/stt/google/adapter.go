// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"tone-monitor-service/internal/service/stt"
	"tone-monitor-service/internal/service/wavfile"
)

// Config holds Google STT configuration.
type Config struct {
	LanguageCode  string
	SampleRateHz  int // used when the chunk header cannot be read
	AudioEncoding string
}

// DefaultConfig returns the default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
	}
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Adapter implements stt.Transcriber using synchronous Google recognition.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
type Adapter struct {
	cfg       Config
	client    *speech.Client
	recognize recognizeFunc
}

// New creates a new Google STT adapter.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Adapter{
		cfg:    cfg,
		client: c,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return c.Recognize(ctx, req)
		},
	}, nil
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "google"
}

// Transcribe sends the whole chunk for recognition and joins the top
// alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, path string) (string, error) {
	if !wavfile.HasAudio(path) {
		return "", stt.ErrEmptyAudio
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read chunk: %w", err)
	}

	resp, err := a.recognize(ctx, a.request(path, data))
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}
	return joinResults(resp), nil
}

func (a *Adapter) request(path string, data []byte) *speechpb.RecognizeRequest {
	rc := &speechpb.RecognitionConfig{
		Encoding:          parseAudioEncoding(a.cfg.AudioEncoding),
		SampleRateHertz:   int32(a.cfg.SampleRateHz),
		AudioChannelCount: 1,
		LanguageCode:      a.cfg.LanguageCode,
	}
	if f, err := wavfile.Probe(path); err == nil {
		rc.SampleRateHertz = int32(f.SampleRateHz)
		rc.AudioChannelCount = int32(f.Channels)
	}
	return &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	}
}

func joinResults(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, r := range resp.GetResults() {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func parseAudioEncoding(s string) speechpb.RecognitionConfig_AudioEncoding {
	switch s {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
