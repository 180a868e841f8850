package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов (engine, api, events, ...) и хранит
// для них уровни консоли, заданные в конфигурации.
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()
	if exists {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер %s: %w", component, err)
	}
	if level, ok := lm.levels[component]; ok {
		logger.minConsoleLevel = level
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger никогда не возвращает nil: при ошибке файла логгер пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	level := INFO
	lm.mu.RLock()
	if l, ok := lm.levels[component]; ok {
		level = l
	}
	lm.mu.RUnlock()
	return &Logger{
		component:       component,
		consoleLogger:   defaultLogger.consoleLogger,
		minConsoleLevel: level,
		minFileLevel:    ERROR,
	}
}

// SetComponentLevel задаёт уровень консоли компонента: сразу для уже созданного
// логгера и при создании для будущего.
func (lm *LoggerManager) SetComponentLevel(component string, level LogLevel) {
	lm.mu.Lock()
	lm.levels[component] = level
	logger, exists := lm.loggers[component]
	lm.mu.Unlock()

	if exists {
		logger.mu.Lock()
		logger.minConsoleLevel = level
		logger.mu.Unlock()
	}
}

// ApplyLevels разбирает уровни компонентов из конфигурации (logging.components).
// Некорректные значения собираются в одну ошибку, корректные применяются.
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	var errs []error
	for component, name := range levels {
		level, err := ParseLevel(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("logging.components.%s: %w", component, err))
			continue
		}
		lm.SetComponentLevel(component, level)
	}
	return errors.Join(errs...)
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("не удалось закрыть логгер %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// ListComponents возвращает отсортированный список компонентов с логгерами
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetEngineLogger() *Logger {
	return GetComponentLogger("engine")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}
