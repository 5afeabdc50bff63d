package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup builds the process-wide logger. JSON output in production, text
// elsewhere so local logs stay readable.
func Setup(level logrus.Level, production bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	if production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
