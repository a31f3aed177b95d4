package backend

import (
	"errors"
	"fmt"
	"strings"

	"pelotero/internal/config"
)

// ParseBackendType accepts a DATA_BACKEND value in any case.
func ParseBackendType(s string) (BackendType, error) {
	bt := BackendType(strings.ToLower(strings.TrimSpace(s)))
	if !bt.IsValid() {
		return "", fmt.Errorf("unknown data backend %q: want one of %v", s, BackendTypes())
	}
	return bt, nil
}

// BackendTypes lists the supported record stores.
func BackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

// FromAppConfig picks the store and change publisher settings out of the
// application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}
	c := Config{Type: bt, SQLiteDBPath: appConfig.SQLiteDBPath}
	if appConfig.AMQPEnabled() {
		c.AMQPURL = appConfig.AMQPURL
		c.AMQPExchange = appConfig.AMQPExchange
		c.AMQPQueue = appConfig.AMQPQueue
	}
	return c, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if !c.Type.IsValid() {
		errs = append(errs, fmt.Errorf("invalid backend type: %q", c.Type))
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("sqlite backend needs a database path"))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP exchange and queue are required when AMQP URL is set"))
	}
	return errors.Join(errs...)
}
