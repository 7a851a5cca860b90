// Пакет config отвечает за сбор и предоставление конфигурации всего приложения
// (quizbot на Telegram Bot API). Он:
//  1. читает переменные окружения из .env (через godotenv),
//  2. нормализует и валидирует входные значения,
//  3. накапливает предупреждения о подставленных значениях по умолчанию,
//  4. фиксирует результат в singleton и предоставляет к нему доступ.
//
// Бизнес-контекст: конфигурация управляет токеном бота, списком администраторов,
// каналом служебных уведомлений, ограничениями скорости (интервал между файлами,
// RPS отправки квизов), выбором бэкенда хранилища пользователей (bolt | json)
// и логированием. Ядро извлечения вопросов конфигурацию не читает никогда —
// оно остаётся чистой функцией от текста.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// EnvConfig описывает параметры, приходящие из окружения (.env). Это «операционные»
// настройки запуска: токен Bot API, администраторы, лимиты, файлы хранилищ.
//
// NB: значения уже проходят минимальную валидацию и нормализацию в loadConfig.
// В рантайме по месту использования предполагается, что EnvConfig последователен.
type EnvConfig struct {
	Token              string
	LogChannelID       int64
	AdminIDs           []int64
	MinFileIntervalSec int
	SendRPS            int
	PollTimeoutSec     int
	BatchTTLMin        int
	StorageBackend     string
	BoltFile           string
	UsersFile          string
	AllowedUsersFile   string
	TempDir            string
	LogLevel           string
	// Файловое логирование
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
}

// Config хранит конфигурацию среды.
type Config struct {
	Env      EnvConfig
	warnings []string     // предупреждения, накопленные при чтении окружения
	mu       sync.RWMutex // защита конкурентного доступа к конфигурации
}

// Бэкенды хранилища пользователей.
const (
	BackendBolt = "bolt"
	BackendJSON = "json"
)

// Значения по умолчанию для параметров окружения и связанных файлов.
const (
	defaultMinFileInterval = 60
	defaultSendRPS         = 2
	defaultPollTimeoutSec  = 60
	defaultBatchTTLMin     = 60
	defaultStorageBackend  = BackendBolt
	defaultBoltFile        = "data/quizbot.bbolt"
	defaultUsersFile       = "data/users.json"
	defaultAllowedFile     = "data/allowed_users.json"
	defaultTempDir         = "temp"
	defaultLogLevel        = "info"
	// Файловое логирование (LOG_FILE не имеет дефолта - должен быть явно указан для активации)
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

var (
	cfgInstance *Config
	cfgDone     bool
)

// Load — точка входа для инициализации глобальной конфигурации всего приложения.
// При первом вызове читает .env, формирует EnvConfig и фиксирует результат в
// singleton cfgInstance. Повторный вызов запрещён (возвращается ошибка), чтобы
// избежать гонок конфигурации на старте.
func Load(envPath string) error {
	if cfgDone {
		return errors.New("config already loaded")
	}
	newCfg, err := loadConfig(envPath)
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	cfgDone = true
	return nil
}

// loadConfig выполняет фактическую загрузку/валидацию без установки глобального
// состояния. Удобно для тестов: можно собрать временный Config и проверить его.
func loadConfig(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	token := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	if token == "" {
		return nil, errors.New("env TELEGRAM_TOKEN must be set")
	}

	var warnings []string

	logChannelID := parseInt64Default("LOG_CHANNEL_ID", 0, &warnings)
	adminIDs := parseIDList("ADMIN_IDS", &warnings)
	minInterval := parseIntDefault("MIN_FILE_INTERVAL_SEC", defaultMinFileInterval, nonNegative, &warnings)
	sendRPS := parseIntDefault("SEND_RPS", defaultSendRPS, greaterThanZero, &warnings)
	pollTimeout := parseIntDefault("POLL_TIMEOUT_SEC", defaultPollTimeoutSec, greaterThanZero, &warnings)
	batchTTL := parseIntDefault("BATCH_TTL_MIN", defaultBatchTTLMin, greaterThanZero, &warnings)
	backend := sanitizeBackend(os.Getenv("STORAGE_BACKEND"), &warnings)
	boltFile := sanitizeFile("BOLT_FILE", os.Getenv("BOLT_FILE"), defaultBoltFile, &warnings)
	usersFile := sanitizeFile("USERS_FILE", os.Getenv("USERS_FILE"), defaultUsersFile, &warnings)
	allowedFile := sanitizeFile("ALLOWED_USERS_FILE", os.Getenv("ALLOWED_USERS_FILE"), defaultAllowedFile, &warnings)
	tempDir := sanitizeFile("TEMP_DIR", os.Getenv("TEMP_DIR"), defaultTempDir, &warnings)
	logLevel := sanitizeLogLevel(os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings)
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	logFileLevel := sanitizeLogLevel(os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings)
	logFileMaxSize := parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings)
	logFileMaxBackups := parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings)
	logFileMaxAge := parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings)
	logFileCompress := parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings)

	if len(adminIDs) == 0 {
		appendWarningf(&warnings, "env ADMIN_IDS is empty; admin commands will be rejected for everyone")
	}

	env := EnvConfig{
		Token:              token,
		LogChannelID:       logChannelID,
		AdminIDs:           adminIDs,
		MinFileIntervalSec: minInterval,
		SendRPS:            sendRPS,
		PollTimeoutSec:     pollTimeout,
		BatchTTLMin:        batchTTL,
		StorageBackend:     backend,
		BoltFile:           boltFile,
		UsersFile:          usersFile,
		AllowedUsersFile:   allowedFile,
		TempDir:            tempDir,
		LogLevel:           logLevel,
		LogFile:            logFile,
		LogFileLevel:       logFileLevel,
		LogFileMaxSize:     logFileMaxSize,
		LogFileMaxBackups:  logFileMaxBackups,
		LogFileMaxAge:      logFileMaxAge,
		LogFileCompress:    logFileCompress,
	}

	return &Config{Env: env, warnings: warnings}, nil
}

// Warnings возвращает накопленные предупреждения, возникшие при загрузке .env
// (например, когда подставлено значение по умолчанию). Возвращается копия.
func Warnings() []string {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	result := make([]string, len(cfgInstance.warnings))
	copy(result, cfgInstance.warnings)
	return result
}

// Env возвращает EnvConfig из глобального singleton. Это неизменяемый снимок
// на момент загрузки; для обновления надо перечитать конфиг целиком.
func Env() EnvConfig {
	return cfgInstance.Env
}

// BatchTTL возвращает время жизни сессии сбора пересланных квизов.
func (e EnvConfig) BatchTTL() time.Duration {
	return time.Duration(e.BatchTTLMin) * time.Minute
}

// IsAdmin сообщает, входит ли userID в список администраторов.
func (e EnvConfig) IsAdmin(userID int64) bool {
	for _, id := range e.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// parseIntDefault читает name как int. Если пусто/некорректно/не проходит
// дополнительную проверку validator — возвращает defaultVal и пишет предупреждение.
// Это позволяет не падать на несущественных настройках и иметь дефолты.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

// parseInt64Default читает name как int64 (идентификаторы чатов бывают отрицательными).
func parseInt64Default(name string, defaultVal int64, warnings *[]string) int64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// parseIDList парсит CSV-строку идентификаторов пользователей, отбрасывая
// пустые и некорректные элементы с предупреждением. Дубликаты убираются.
func parseIDList(name string, warnings *[]string) []int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}

	seen := make(map[int64]struct{})
	var result []int64
	for _, part := range strings.Split(raw, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			appendWarningf(warnings, "env %s entry %q is not a valid user id", name, token)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// appendWarningf — служебная функция для накопления предупреждений о некорректных
// переменных окружения. Список затем доступен через Warnings().
func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

// greaterThanZero / nonNegative — простые валидаторы чисел. Используются в
// parseIntDefault, чтобы навязать смысловые ограничения без падения приложения.
func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }

// parseBoolDefault читает name как bool. Если пусто/некорректно — возвращает defaultVal и пишет предупреждение.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %v", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel нормализует LOG_LEVEL и ограничивает значения набором
// {debug, info, warn, error}. Всё остальное превращается в defaultVal.
func sanitizeLogLevel(level string, defaultVal string, warnings *[]string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		appendWarningf(warnings, "env LOG_LEVEL is not set; using default %q", defaultVal)
		return defaultVal
	}
	switch lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env LOG_LEVEL value %q is invalid; using default %q", level, defaultVal)
		return defaultVal
	}
}

// sanitizeBackend выбирает бэкенд хранилища пользователей (bolt | json).
// Некорректные значения приводятся к defaultStorageBackend с предупреждением.
func sanitizeBackend(value string, warnings *[]string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		appendWarningf(warnings, "env STORAGE_BACKEND is not set; using default %q", defaultStorageBackend)
		return defaultStorageBackend
	}
	if v == BackendBolt || v == BackendJSON {
		return v
	}
	appendWarningf(warnings, "env STORAGE_BACKEND value %q is invalid; using default %q", value, defaultStorageBackend)
	return defaultStorageBackend
}

// sanitizeFile возвращает валидное имя файла конфигурации. Если переменная не
// задана, подставляет fallback и пишет предупреждение.
func sanitizeFile(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}
