package models

import "fmt"

// LoadError reports a knowledge source that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load knowledge source %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a failure of the embedding backend.
type EmbeddingServiceError struct {
	Op  string
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// InferenceError reports a failure of the model backend while generating.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("inference: %v", e.Err)
	}
	return fmt.Sprintf("inference (%s): %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key string
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration: %s: %s", e.Key, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
