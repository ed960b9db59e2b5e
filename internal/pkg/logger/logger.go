package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger. Dev gets colored text on stdout,
// everything else JSON lines so the platform log drain can index fields.
func Setup(dev bool, level string) {
	log.SetOutput(os.Stdout)
	if dev {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
