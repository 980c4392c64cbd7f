package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

func NewAuthForTest(firebaseProjectID, noAuthUID string) *Auth {
	return &Auth{
		firebaseProjectID: firebaseProjectID,
		noAuthUID:         noAuthUID,
	}
}

func NewGatewayForTest(maxAttempts int64, initial, maxInterval time.Duration) *Gateway {
	return &Gateway{
		maxAttempts:     maxAttempts,
		attemptTimeout:  time.Second,
		initialInterval: initial,
		maxInterval:     maxInterval,
	}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

func NewCacheForTest(ttl time.Duration, maxEntries int64, sqlitePath string) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		sqlitePath: sqlitePath,
	}
}
