package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger applies the level and format of c to log.
func (c LogConfig) ConfigureLogger(log *logrus.Logger) error {
	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	switch c.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
