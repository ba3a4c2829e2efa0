package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestConfig() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

func TestNormalize(t *testing.T) {
	t.Run("Пустая конфигурация получает значения по умолчанию", func(t *testing.T) {
		cfg := defaultTestConfig()

		assert.Equal(t, DefaultServerHost, cfg.Server.Host)
		assert.Equal(t, DefaultServerPort, cfg.Server.Port)
		assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
		assert.Equal(t, DefaultCacheTTL, cfg.Processing.CacheTTL)
		assert.Equal(t, DefaultTimeZone, cfg.Analysis.TimeZone)
		assert.Equal(t, DefaultAnalysisPoolSize, cfg.Analysis.PoolSize)
		assert.Equal(t, DefaultOutputDir, cfg.Reporting.OutputDir)
		assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
		assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	})

	t.Run("Производные длительности вычисляются из числовых полей", func(t *testing.T) {
		cfg := &Config{
			Server:     Server{ShutdownTimeoutSeconds: 5},
			Processing: Processing{TaskTimeoutSeconds: 120, CacheTTLMinutes: 30},
		}
		cfg.normalize()

		assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 120*time.Second, cfg.Processing.TaskTimeout)
		assert.Equal(t, 30*time.Minute, cfg.Processing.CacheTTL)
	})

	t.Run("Нулевой таймаут задачи означает отсутствие ограничения", func(t *testing.T) {
		cfg := defaultTestConfig()
		assert.Equal(t, time.Duration(0), cfg.Processing.TaskTimeout)
	})
}

func TestValidate(t *testing.T) {
	t.Run("Конфигурация по умолчанию проходит валидацию", func(t *testing.T) {
		cfg := defaultTestConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("Некорректный порт отклоняется", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())

		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("Отрицательный таймаут задачи отклоняется", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Processing.TaskTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("Пустой часовой пояс отклоняется", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Analysis.TimeZone = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("Неположительный размер пула отклоняется", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Analysis.PoolSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Неизвестный уровень логирования отклоняется", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}

func TestAddress(t *testing.T) {
	cfg := &Config{Server: Server{Host: "localhost", Port: 9090}}
	assert.Equal(t, "localhost:9090", cfg.Address())
}
