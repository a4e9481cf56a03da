package pipeline

import "figure-stand/internal/logger"

func nopLogger() logger.Logger {
	return logger.NewNop()
}
