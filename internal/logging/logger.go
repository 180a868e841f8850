package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня ("debug", "INFO", ...)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

// Logger пишет логи компонента в консоль и, если задан каталог логов, в файл
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.Mutex
}

// Настройки, с которыми создаются новые логгеры
var (
	settingsMu   sync.RWMutex
	logDir       = ""   // Пусто: только консоль
	consoleLevel = INFO // Минимальный уровень для консоли
)

// Глобальный логгер по умолчанию
var defaultLogger = &Logger{
	component:       "default",
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    TRACE,
}

// Configure задаёт каталог файлов логов и уровень консоли для новых логгеров
func Configure(dir string, level LogLevel) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	logDir = dir
	consoleLevel = level
}

// NewLogger создаёт логгер компонента
func NewLogger(component string) (*Logger, error) {
	settingsMu.RLock()
	dir, level := logDir, consoleLevel
	settingsMu.RUnlock()

	logger := &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: level,
		minFileLevel:    TRACE,
	}
	if dir == "" {
		return logger, nil
	}

	// Создаем директорию для логов
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}
	logger.file = file
	logger.fileLogger = log.New(file, "", log.LstdFlags)
	return logger, nil
}

// NewWriterLogger создаёт логгер, пишущий только в w (удобно в тестах)
func NewWriterLogger(component string, w io.Writer, level LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", 0),
		minConsoleLevel: level,
		minFileLevel:    TRACE,
	}
}

// InitDefaultLogger заменяет глобальный логгер логгером компонента
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// CloseDefaultLogger закрывает файл глобального логгера
func CloseDefaultLogger() {
	if defaultLogger != nil {
		defaultLogger.Close()
	}
}

// Default возвращает глобальный логгер
func Default() *Logger {
	return defaultLogger
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(TRACE, format, args...)
}

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// log внутренняя функция для логирования
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	// В файл пишем всё от minFileLevel
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует через глобальный логгер
func Trace(format string, args ...interface{}) {
	defaultLogger.Trace(format, args...)
}

// Debug логирует через глобальный логгер
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// Info логирует через глобальный логгер
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Warn логирует через глобальный логгер
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Error логирует через глобальный логгер
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}
