package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

func New(verbose bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = io.Discard
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
		DisableColors:   true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// ChannelWriter forwards each written line to a channel, dropping lines when
// the reader falls behind. It lets the TUI show log output without the
// logger writing over the alt screen.
type ChannelWriter struct {
	Lines chan<- string
}

func (writer ChannelWriter) Write(data []byte) (int, error) {
	message := strings.TrimSpace(string(data))
	if message == "" {
		return len(data), nil
	}

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		select {
		case writer.Lines <- line:
		default:
		}
	}

	return len(data), nil
}
