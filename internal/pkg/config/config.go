// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`

	// Вычисляется при загрузке из ShutdownTimeoutSeconds.
	ShutdownTimeout time.Duration `json:"-" yaml:"-"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeoutSeconds int `json:"task_timeout_seconds" yaml:"task_timeout_seconds"` // 0 - без ограничений
	CacheTTLMinutes    int `json:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`

	// Вычисляются при загрузке из секундных и минутных полей.
	TaskTimeout time.Duration `json:"-" yaml:"-"`
	CacheTTL    time.Duration `json:"-" yaml:"-"`
}

// Analysis содержит конфигурацию движка анализа
type Analysis struct {
	// TimeZone — часовой пояс человекочитаемой колонки LocalTime.
	TimeZone string `json:"time_zone" yaml:"time_zone"`
	// PoolSize — количество одновременных воркеров пакетного анализа.
	PoolSize int `json:"pool_size" yaml:"pool_size"`
}

// Reporting содержит конфигурацию межчатовых отчетов
type Reporting struct {
	// GroupsFile — необязательный YAML-файл размеров групп поверх встроенной таблицы.
	GroupsFile string `json:"groups_file" yaml:"groups_file"`
	// OutputDir — каталог для CSV-таблиц и книги отчета.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Analysis   Analysis   `json:"analysis" yaml:"analysis"`
	Reporting  Reporting  `json:"reporting" yaml:"reporting"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из переменных окружения, .env файла или config.yml
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Если .env файла не существует, это нормально, мы будем полагаться на переменные окружения или config.yml
	}

	// Попытка загрузки из config.yml сначала
	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg, err = loadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml config: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения
func loadFromEnv() (*Config, error) {
	host := getEnv("SERVER_HOST", DefaultServerHost)
	portStr := getEnv("SERVER_PORT", strconv.Itoa(DefaultServerPort))
	taskTimeoutStr := getEnv("TASK_TIMEOUT_SECONDS", strconv.Itoa(int(DefaultTaskTimeout/time.Second)))
	cacheTTLStr := getEnv("CACHE_TTL_MINUTES", strconv.Itoa(int(DefaultCacheTTL/time.Minute)))
	timeZone := getEnv("ANALYSIS_TIME_ZONE", DefaultTimeZone)
	poolSizeStr := getEnv("ANALYSIS_POOL_SIZE", strconv.Itoa(DefaultAnalysisPoolSize))
	groupsFile := getEnv("REPORTING_GROUPS_FILE", "")
	outputDir := getEnv("REPORTING_OUTPUT_DIR", DefaultOutputDir)

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	taskTimeout, err := strconv.Atoi(taskTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_TIMEOUT_SECONDS: %w", err)
	}

	cacheTTL, err := strconv.Atoi(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_MINUTES: %w", err)
	}

	poolSize, err := strconv.Atoi(poolSizeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_POOL_SIZE: %w", err)
	}

	return &Config{
		Server: Server{
			Host: host,
			Port: port,
		},
		Processing: Processing{
			TaskTimeoutSeconds: taskTimeout,
			CacheTTLMinutes:    cacheTTL,
		},
		Analysis: Analysis{
			TimeZone: timeZone,
			PoolSize: poolSize,
		},
		Reporting: Reporting{
			GroupsFile: groupsFile,
			OutputDir:  outputDir,
		},
	}, nil
}

// normalize подставляет значения по умолчанию и вычисляет производные поля
func (c *Config) normalize() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = int(DefaultShutdownTimeout / time.Second)
	}
	c.Server.ShutdownTimeout = time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second

	if c.Processing.CacheTTLMinutes == 0 {
		c.Processing.CacheTTLMinutes = int(DefaultCacheTTL / time.Minute)
	}
	c.Processing.TaskTimeout = time.Duration(c.Processing.TaskTimeoutSeconds) * time.Second
	c.Processing.CacheTTL = time.Duration(c.Processing.CacheTTLMinutes) * time.Minute

	if c.Analysis.TimeZone == "" {
		c.Analysis.TimeZone = DefaultTimeZone
	}
	if c.Analysis.PoolSize == 0 {
		c.Analysis.PoolSize = DefaultAnalysisPoolSize
	}

	if c.Reporting.OutputDir == "" {
		c.Reporting.OutputDir = DefaultOutputDir
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port number (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be positive")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout_seconds must be non-negative (0 for no limit)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl_minutes must be a positive integer")
	}

	if c.Analysis.TimeZone == "" {
		return fmt.Errorf("analysis.time_zone cannot be empty")
	}

	if c.Analysis.PoolSize <= 0 {
		return fmt.Errorf("analysis.pool_size must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
