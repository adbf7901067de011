package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear relevant env vars
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "GRPC_PORT", "LOG_LEVEL", "ZEROLOG_LOG_LEVEL",
		"RECORDER_BACKEND", "RECORDER_CHUNK_DURATION", "RECORDER_SAMPLE_RATE_HZ",
		"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_AUDIO_ENCODING",
		"CLASSIFIER_BACKEND", "CLASSIFIER_ENABLED", "CLASSIFIER_MODEL",
		"MONITOR_NOTIFICATION_COOLDOWN", "MONITOR_EXCERPT_LIMIT", "MONITOR_FLAGGED_HISTORY",
		"NOTIFIER_BACKEND", "NOTIFIER_SOUND", "KAFKA_ENABLED", "KAFKA_BROKERS",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-tone-monitor" {
		t.Errorf("expected default principal 'svc-tone-monitor', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "50051" {
		t.Errorf("expected default gRPC port '50051', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}

	// Recorder defaults
	if cfg.Recorder.Backend != "ffmpeg" {
		t.Errorf("expected default recorder 'ffmpeg', got %s", cfg.Recorder.Backend)
	}
	if cfg.Recorder.ChunkDuration != 60*time.Second {
		t.Errorf("expected default chunk duration 60s, got %v", cfg.Recorder.ChunkDuration)
	}
	if cfg.Recorder.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Recorder.SampleRateHz)
	}

	// STT defaults
	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.STT.AudioEncoding)
	}

	// Classifier defaults
	if cfg.Classifier.Backend != "openai" {
		t.Errorf("expected default classifier 'openai', got %s", cfg.Classifier.Backend)
	}
	if !cfg.Classifier.Enabled {
		t.Error("expected classifier enabled by default")
	}

	// Monitor policy defaults
	if cfg.Monitor.NotificationCooldown != 60*time.Second {
		t.Errorf("expected default cooldown 60s, got %v", cfg.Monitor.NotificationCooldown)
	}
	if cfg.Monitor.ExcerptLimit != 120 {
		t.Errorf("expected default excerpt limit 120, got %d", cfg.Monitor.ExcerptLimit)
	}
	if cfg.Monitor.FlaggedHistory != 50 {
		t.Errorf("expected default flagged history 50, got %d", cfg.Monitor.FlaggedHistory)
	}

	// Notifier and Kafka defaults
	if cfg.Notifier.Backend != "desktop" || !cfg.Notifier.Sound {
		t.Errorf("expected desktop notifier with sound, got %s sound=%v", cfg.Notifier.Backend, cfg.Notifier.Sound)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected no brokers by default, got %v", cfg.Kafka.Brokers)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	// Set custom env vars
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("GRPC_PORT", "9999")
	os.Setenv("LOG_LEVEL", "DEBUG")
	os.Setenv("RECORDER_BACKEND", "Synthetic")
	os.Setenv("RECORDER_CHUNK_DURATION", "15s")
	os.Setenv("STT_PROVIDER", "google")
	os.Setenv("STT_LANGUAGE_CODE", "es-ES")
	os.Setenv("CLASSIFIER_BACKEND", "mock")
	os.Setenv("CLASSIFIER_ENABLED", "false")
	os.Setenv("MONITOR_NOTIFICATION_COOLDOWN", "2m")
	os.Setenv("MONITOR_EXCERPT_LIMIT", "80")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	defer func() {
		// Clean up
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("GRPC_PORT")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("RECORDER_BACKEND")
		os.Unsetenv("RECORDER_CHUNK_DURATION")
		os.Unsetenv("STT_PROVIDER")
		os.Unsetenv("STT_LANGUAGE_CODE")
		os.Unsetenv("CLASSIFIER_BACKEND")
		os.Unsetenv("CLASSIFIER_ENABLED")
		os.Unsetenv("MONITOR_NOTIFICATION_COOLDOWN")
		os.Unsetenv("MONITOR_EXCERPT_LIMIT")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Recorder.Backend != "synthetic" {
		t.Errorf("expected recorder 'synthetic', got %s", cfg.Recorder.Backend)
	}
	if cfg.Recorder.ChunkDuration != 15*time.Second {
		t.Errorf("expected chunk duration 15s, got %v", cfg.Recorder.ChunkDuration)
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("expected STT provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.STT.LanguageCode)
	}
	if cfg.Classifier.Backend != "mock" {
		t.Errorf("expected classifier 'mock', got %s", cfg.Classifier.Backend)
	}
	if cfg.Classifier.Enabled {
		t.Error("expected classifier disabled")
	}
	if cfg.Monitor.NotificationCooldown != 2*time.Minute {
		t.Errorf("expected cooldown 2m, got %v", cfg.Monitor.NotificationCooldown)
	}
	if cfg.Monitor.ExcerptLimit != 80 {
		t.Errorf("expected excerpt limit 80, got %d", cfg.Monitor.ExcerptLimit)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-1:9092" || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	// Set invalid env vars
	os.Setenv("RECORDER_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("RECORDER_CHUNK_DURATION", "invalid")
	os.Setenv("CLASSIFIER_ENABLED", "invalid")
	os.Setenv("MONITOR_NOTIFICATION_COOLDOWN", "invalid")
	os.Setenv("MONITOR_EXCERPT_LIMIT", "invalid")

	defer func() {
		os.Unsetenv("RECORDER_SAMPLE_RATE_HZ")
		os.Unsetenv("RECORDER_CHUNK_DURATION")
		os.Unsetenv("CLASSIFIER_ENABLED")
		os.Unsetenv("MONITOR_NOTIFICATION_COOLDOWN")
		os.Unsetenv("MONITOR_EXCERPT_LIMIT")
	}()

	cfg := Load()

	// Should fall back to defaults on parse errors
	if cfg.Recorder.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Recorder.SampleRateHz)
	}
	if cfg.Recorder.ChunkDuration != 60*time.Second {
		t.Errorf("expected default chunk duration on invalid input, got %v", cfg.Recorder.ChunkDuration)
	}
	if !cfg.Classifier.Enabled {
		t.Error("expected default classifier enabled on invalid input")
	}
	if cfg.Monitor.NotificationCooldown != 60*time.Second {
		t.Errorf("expected default cooldown on invalid input, got %v", cfg.Monitor.NotificationCooldown)
	}
	if cfg.Monitor.ExcerptLimit != 120 {
		t.Errorf("expected default excerpt limit on invalid input, got %d", cfg.Monitor.ExcerptLimit)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestLoad_LogLevel_FallsBackToZerologVar(t *testing.T) {
	os.Unsetenv("LOG_LEVEL")
	os.Setenv("ZEROLOG_LOG_LEVEL", "warn")
	defer os.Unsetenv("ZEROLOG_LOG_LEVEL")

	cfg := Load()

	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Observability.LogLevel)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultList(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected []string
	}{
		{"single", "a:1", []string{"a:1"}},
		{"multiple", "a:1,b:2", []string{"a:1", "b:2"}},
		{"spaces and blanks", " a:1 , ,b:2 ", []string{"a:1", "b:2"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_LIST_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultList(key, nil)
			if len(got) != len(tt.expected) {
				t.Fatalf("envOrDefaultList(%q) = %v, want %v", tt.envValue, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("envOrDefaultList(%q)[%d] = %s, want %s", tt.envValue, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
