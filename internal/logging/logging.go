package logging

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger. An unknown level falls back to
// info.
func Init(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		log.WithField("configured_level", level).Warn("invalid LOG_LEVEL, defaulting to info")
		return
	}
	log.SetLevel(parsed)
}
