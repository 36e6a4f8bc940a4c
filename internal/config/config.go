package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "ARXIV_MONITOR_CONFIG"

// Providers accepted for LLM_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var defaultKeywords = []string{
	"red teaming",
	"adversarial attack",
	"jailbreak",
	"prompt injection",
	"model extraction",
	"data poisoning",
	"backdoor attack",
	"privacy attack",
	"model stealing",
	"LLM security",
	"AI security",
	"AI safety",
	"AI alignment",
	"reward hacking",
}

// Settings is the immutable process-wide configuration. Loaded once at
// startup and shared read-only with every component.
type Settings struct {
	Provider        string        `yaml:"provider"`
	AnthropicAPIKey string        `yaml:"anthropicApiKey"`
	OpenAIAPIKey    string        `yaml:"openaiApiKey"`
	Model           string        `yaml:"model"`
	BatchSize       int           `yaml:"batchSize"`
	ProcessingDelay time.Duration `yaml:"processingDelay"`

	DatabasePath string `yaml:"databasePath"`

	Arxiv ArxivSettings `yaml:"arxiv"`
	SMTP  SMTPSettings  `yaml:"smtp"`

	Recipients    []string `yaml:"recipients"`
	SubjectPrefix string   `yaml:"subjectPrefix"`
	MinRelevance  int      `yaml:"minRelevance"`

	CollectionAt string `yaml:"collectionSchedule"`
	ProcessingAt string `yaml:"processingSchedule"`
	DigestAt     string `yaml:"digestSchedule"`

	LogLevel     string `yaml:"logLevel"`
	RunImmediate bool   `yaml:"runImmediate"`
}

// ArxivSettings describes the collection source and query.
type ArxivSettings struct {
	Source       string   `yaml:"source"`
	APIURL       string   `yaml:"apiUrl"`
	Keywords     []string `yaml:"keywords"`
	Categories   []string `yaml:"categories"`
	MaxResults   int      `yaml:"maxResults"`
	LookbackDays int      `yaml:"lookbackDays"`
}

// SMTPSettings wires the outbound mail transport.
type SMTPSettings struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

// APIKey returns the credential for the active provider.
func (s Settings) APIKey() string {
	if s.Provider == ProviderOpenAI {
		return s.OpenAIAPIKey
	}
	return s.AnthropicAPIKey
}

// Load reads the optional YAML file named by ARXIV_MONITOR_CONFIG, applies
// environment overrides on top, and validates. Any missing required key or
// malformed value is a startup failure.
func Load() (Settings, error) {
	cfg := defaultSettings()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Settings{}, err
	}

	if err := cfg.validate(); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

func defaultSettings() Settings {
	return Settings{
		Provider:        ProviderAnthropic,
		Model:           "claude-3-haiku-20240307",
		BatchSize:       5,
		ProcessingDelay: 2 * time.Second,
		DatabasePath:    "./data/papers.db",
		Arxiv: ArxivSettings{
			Source:       "arxiv-api",
			APIURL:       "https://export.arxiv.org/api/query",
			Keywords:     defaultKeywords,
			Categories:   []string{"cs.AI", "cs.CL", "cs.CR", "cs.LG"},
			MaxResults:   100,
			LookbackDays: 7,
		},
		SMTP:          SMTPSettings{Port: 587},
		SubjectPrefix: "AI Red Teaming Research Digest -",
		MinRelevance:  5,
		CollectionAt:  "02:00",
		ProcessingAt:  "03:00",
		DigestAt:      "08:00",
		LogLevel:      "INFO",
	}
}

func (c *Settings) applyEnvOverrides() error {
	var err error

	setString(&c.Provider, "LLM_PROVIDER")
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	setString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Model, "LLM_MODEL")
	if c.Provider == ProviderOpenAI && os.Getenv("LLM_MODEL") == "" {
		c.Model = "gpt-4o-mini"
	}

	if err = setInt(&c.BatchSize, "BATCH_SIZE"); err != nil {
		return err
	}
	if err = setSeconds(&c.ProcessingDelay, "PROCESSING_DELAY"); err != nil {
		return err
	}

	setString(&c.DatabasePath, "DATABASE_PATH")

	setString(&c.Arxiv.Source, "ARXIV_SOURCE")
	setString(&c.Arxiv.APIURL, "ARXIV_API_URL")
	setList(&c.Arxiv.Keywords, "ARXIV_KEYWORDS")
	setList(&c.Arxiv.Categories, "ARXIV_CATEGORIES")
	if err = setInt(&c.Arxiv.MaxResults, "MAX_RESULTS"); err != nil {
		return err
	}
	if err = setInt(&c.Arxiv.LookbackDays, "LOOKBACK_DAYS"); err != nil {
		return err
	}

	setString(&c.SMTP.Server, "SMTP_SERVER")
	if err = setInt(&c.SMTP.Port, "SMTP_PORT"); err != nil {
		return err
	}
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.Sender, "SENDER_EMAIL")
	setList(&c.Recipients, "RECIPIENT_EMAILS")
	setString(&c.SubjectPrefix, "EMAIL_SUBJECT_PREFIX")
	if err = setInt(&c.MinRelevance, "MIN_RELEVANCE_SCORE"); err != nil {
		return err
	}

	setString(&c.CollectionAt, "COLLECTION_SCHEDULE")
	setString(&c.ProcessingAt, "PROCESSING_SCHEDULE")
	setString(&c.DigestAt, "DIGEST_SCHEDULE")

	setString(&c.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("RUN_IMMEDIATE"); v != "" {
		c.RunImmediate = strings.EqualFold(v, "true")
	}

	return nil
}

func (c Settings) validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("config: unsupported LLM_PROVIDER %q (want %q or %q)",
			c.Provider, ProviderAnthropic, ProviderOpenAI)
	}

	if c.APIKey() == "" {
		return fmt.Errorf("config: no API key set for provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("config: LLM_MODEL must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.ProcessingDelay < 0 {
		return fmt.Errorf("config: PROCESSING_DELAY must not be negative")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("config: DATABASE_PATH must not be empty")
	}
	if c.Arxiv.MaxResults <= 0 {
		return fmt.Errorf("config: MAX_RESULTS must be positive, got %d", c.Arxiv.MaxResults)
	}
	if c.Arxiv.LookbackDays <= 0 {
		return fmt.Errorf("config: LOOKBACK_DAYS must be positive, got %d", c.Arxiv.LookbackDays)
	}
	if len(c.Arxiv.Keywords) == 0 {
		return fmt.Errorf("config: at least one arXiv keyword is required")
	}

	for _, sched := range []struct{ key, value string }{
		{"COLLECTION_SCHEDULE", c.CollectionAt},
		{"PROCESSING_SCHEDULE", c.ProcessingAt},
		{"DIGEST_SCHEDULE", c.DigestAt},
	} {
		if _, _, err := ParseClock(sched.value); err != nil {
			return fmt.Errorf("config: %s: %w", sched.key, err)
		}
	}

	return nil
}

// ParseClock validates an HH:MM 24-hour wall-clock time.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q is not an HH:MM time", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	*dst = i
	return nil
}

func setSeconds(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s must be a number of seconds, got %q", key, v)
	}
	*dst = time.Duration(secs) * time.Second
	return nil
}
