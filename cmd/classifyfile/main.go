// Command classifyfile runs one WAV file through the transcription and tone
// classification pipeline and prints the verdict.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tone-monitor-service/internal/app"
	"tone-monitor-service/internal/config"
	"tone-monitor-service/internal/service/notify"
	"tone-monitor-service/internal/service/prefs"
	"tone-monitor-service/internal/service/tone"
	"tone-monitor-service/internal/service/wavfile"
)

func main() {
	audioFile := flag.String("audio", "", "Path to WAV file (16-bit PCM)")
	question := flag.String("question", "", "Override the tone question")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if *audioFile == "" {
		logger.Fatal().Msg("-audio is required")
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	format, err := wavfile.Probe(*audioFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *audioFile).Msg("Not a usable WAV file")
	}
	logger.Info().
		Int("sampleRate", format.SampleRateHz).
		Int("channels", format.Channels).
		Int("bitDepth", format.BitDepth).
		Dur("duration", format.Duration).
		Msg("WAV file")

	transcriber, closeSTT, err := app.NewTranscriber(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transcriber")
	}
	defer closeSTT()

	start := time.Now()
	text, err := transcriber.Transcribe(ctx, *audioFile)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", transcriber.Name()).Msg("Transcription failed")
	}
	logger.Info().Dur("latency", time.Since(start)).Str("provider", transcriber.Name()).Msg("Transcribed")

	fmt.Printf("Transcript: %q\n", text)
	if text == "" {
		fmt.Println("Verdict:    none (no speech)")
		return
	}

	q := *question
	if q == "" {
		store, err := prefs.Open(cfg.Preferences.File)
		if err != nil {
			logger.Warn().Err(err).Msg("Preferences unreadable, using default question")
			q = tone.DefaultQuestion
		} else {
			q = store.Prompt()
		}
	}

	start = time.Now()
	res, err := app.NewClassifier(cfg).Classify(ctx, text, q)
	if err != nil {
		logger.Error().Err(err).Str("reason", tone.FailureReason(err)).Msg("Classification failed")
		fmt.Printf("Status:     %s\n", tone.StatusMessage(err))
		os.Exit(1)
	}
	logger.Info().Dur("latency", time.Since(start)).Msg("Classified")

	if res.Agreeable {
		fmt.Println("Verdict:    agreeable")
		return
	}
	fmt.Println("Verdict:    disagreeable")
	if res.Reason != "" {
		fmt.Printf("Reason:     %s\n", res.Reason)
	}
	fmt.Printf("Alert:      %s\n", notify.DisagreeableBody(res.Reason, text, cfg.Monitor.ExcerptLimit))
}
