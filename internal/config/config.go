// Package config loads service configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration is the full runtime configuration of the tone monitor.
type Configuration struct {
	Service       ServiceConfig
	Recorder      RecorderConfig
	STT           STTConfig
	Classifier    ClassifierConfig
	Monitor       MonitorConfig
	Notifier      NotifierConfig
	Kafka         KafkaConfig
	Preferences   PreferencesConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal string
	Env       string
	HTTPPort  string
	GRPCPort  string
}

// RecorderConfig controls how audio chunks are captured.
type RecorderConfig struct {
	Backend       string // ffmpeg, synthetic
	FFmpegPath    string
	InputFormat   string // ffmpeg -f value, e.g. pulse, alsa, avfoundation
	InputDevice   string
	ChunkDuration time.Duration
	SampleRateHz  int
	ChunkDir      string
	StopGrace     time.Duration
}

// STTConfig selects and configures the transcription provider.
type STTConfig struct {
	Provider      string // mock, google, openai
	LanguageCode  string
	AudioEncoding string
	OpenAIModel   string
}

// ClassifierConfig configures the tone classifier backend.
type ClassifierConfig struct {
	Backend      string // openai, mock, none
	Enabled      bool
	APIKey       string
	BaseURL      string
	Model        string
	ReadinessTTL time.Duration
}

// MonitorConfig holds pipeline policy settings.
type MonitorConfig struct {
	NotificationCooldown time.Duration
	ExcerptLimit         int
	FlaggedHistory       int
}

// NotifierConfig selects how alerts reach the user.
type NotifierConfig struct {
	Backend string // desktop, log
	Sound   bool
	AppName string
}

// KafkaConfig holds event publisher settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicVerdict string
	TopicAlert   string
	Principal    string
}

// PreferencesConfig points at the preference file.
type PreferencesConfig struct {
	File string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Configuration {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-tone-monitor")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			Env:       envOrDefault("ENV", "prod"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
		},
		Recorder: RecorderConfig{
			Backend:       strings.ToLower(envOrDefault("RECORDER_BACKEND", "ffmpeg")),
			FFmpegPath:    envOrDefault("FFMPEG_PATH", "ffmpeg"),
			InputFormat:   envOrDefault("RECORDER_INPUT_FORMAT", "pulse"),
			InputDevice:   envOrDefault("RECORDER_INPUT_DEVICE", "default"),
			ChunkDuration: envOrDefaultDuration("RECORDER_CHUNK_DURATION", 60*time.Second),
			SampleRateHz:  envOrDefaultInt("RECORDER_SAMPLE_RATE_HZ", 16000),
			ChunkDir:      envOrDefault("RECORDER_CHUNK_DIR", os.TempDir()),
			StopGrace:     envOrDefaultDuration("RECORDER_STOP_GRACE", 2*time.Second),
		},
		STT: STTConfig{
			Provider:      strings.ToLower(envOrDefault("STT_PROVIDER", "mock")),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			AudioEncoding: envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			OpenAIModel:   envOrDefault("STT_OPENAI_MODEL", "whisper-1"),
		},
		Classifier: ClassifierConfig{
			Backend:      strings.ToLower(envOrDefault("CLASSIFIER_BACKEND", "openai")),
			Enabled:      envOrDefaultBool("CLASSIFIER_ENABLED", true),
			APIKey:       envOrDefault("OPENAI_API_KEY", ""),
			BaseURL:      envOrDefault("OPENAI_BASE_URL", ""),
			Model:        envOrDefault("CLASSIFIER_MODEL", "gpt-4o-mini"),
			ReadinessTTL: envOrDefaultDuration("CLASSIFIER_READINESS_TTL", 5*time.Minute),
		},
		Monitor: MonitorConfig{
			NotificationCooldown: envOrDefaultDuration("MONITOR_NOTIFICATION_COOLDOWN", 60*time.Second),
			ExcerptLimit:         envOrDefaultInt("MONITOR_EXCERPT_LIMIT", 120),
			FlaggedHistory:       envOrDefaultInt("MONITOR_FLAGGED_HISTORY", 50),
		},
		Notifier: NotifierConfig{
			Backend: strings.ToLower(envOrDefault("NOTIFIER_BACKEND", "desktop")),
			Sound:   envOrDefaultBool("NOTIFIER_SOUND", true),
			AppName: envOrDefault("NOTIFIER_APP_NAME", "Tone Monitor"),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("KAFKA_BROKERS", nil),
			TopicVerdict: envOrDefault("KAFKA_TOPIC_VERDICT", "tone.verdict"),
			TopicAlert:   envOrDefault("KAFKA_TOPIC_ALERT", "tone.alert"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Preferences: PreferencesConfig{
			File: envOrDefault("TONE_PREFS_FILE", defaultPrefsFile()),
		},
		Observability: ObservabilityConfig{
			LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", envOrDefault("ZEROLOG_LOG_LEVEL", "info"))),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tone-monitor", "preferences.toml")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
