package logging

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Компоненты стримера с собственными логгерами
const (
	ComponentStreaming = "streaming"
	ComponentAPI       = "api"
	ComponentEventBus  = "eventbus"
)

// LoggerManager хранит логгеры компонентов; каждый компонент пишет в свой файл
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный fallback, если файл не открылся
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		Warn("⚠️ Логгер компонента %s без файла: %v", component, err)
		return newLogger(component, os.Stdout, currentOptions().ConsoleLevel)
	}
	return logger
}

// SetLogLevel меняет уровни компонента. Логгер создаётся, если его ещё нет,
// поэтому уровни из конфигурации можно применить до старта компонентов.
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return err
	}
	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// ApplyLevels применяет уровни вида {"streaming": "debug"}.
// Уровень одновременно задаёт порог консоли и файла.
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	var errs []error
	for component, raw := range levels {
		level, err := ParseLevel(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", component, err))
			continue
		}
		if err := lm.SetLogLevel(component, level, level); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListComponents возвращает отсортированный список компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает все логгеры и очищает реестр
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

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetStreamingLogger() *Logger { return GetComponentLogger(ComponentStreaming) }

func GetAPILogger() *Logger { return GetComponentLogger(ComponentAPI) }

func GetEventBusLogger() *Logger { return GetComponentLogger(ComponentEventBus) }
