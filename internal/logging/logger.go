// Package logging provides structured JSON logging for Deal Brain's
// ingestion and valuation core.
//
// Each log entry is a single line of JSON containing a timestamp, level,
// component name, correlation fields (listing ID, request ID), a message,
// and a free-form fields map. This mirrors the output shape consumed by
// CloudWatch/ELK-style aggregators rather than a human-formatted console
// logger.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Level string

const (
	Debug Level = "DEBUG"
	Info  Level = "INFO"
	Warn  Level = "WARN"
	Error Level = "ERROR"
)

// Logger emits structured JSON log lines for one named component
// (e.g. "adapters.ebay", "valuation", "ingest").
type Logger struct {
	Component  string
	InstanceID string
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Instance  string                 `json:"instance_id"`
	ListingID string                 `json:"listing_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// New creates a logger for the given component. Instance ID is read from
// the INSTANCE_ID environment variable, defaulting to "unknown" so logs
// are still emitted outside a managed deployment.
func New(component string) *Logger {
	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = "unknown"
	}
	return &Logger{Component: component, InstanceID: instanceID}
}

func (l *Logger) log(level Level, listingID, requestID, message string, fields map[string]interface{}) {
	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Component: l.Component,
		Instance:  l.InstanceID,
		ListingID: listingID,
		RequestID: requestID,
		Message:   message,
		Fields:    fields,
	}

	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("logging: failed to marshal entry: %v", err)
		return
	}
	log.Println(string(data))
}

func (l *Logger) Info(listingID, requestID, message string, fields map[string]interface{}) {
	l.log(Info, listingID, requestID, message, fields)
}

func (l *Logger) Warn(listingID, requestID, message string, fields map[string]interface{}) {
	l.log(Warn, listingID, requestID, message, fields)
}

func (l *Logger) Error(listingID, requestID, message string, err error, fields map[string]interface{}) {
	if err != nil {
		if fields == nil {
			fields = make(map[string]interface{})
		}
		fields["error"] = err.Error()
	}
	l.log(Error, listingID, requestID, message, fields)
}

func (l *Logger) Debug(listingID, requestID, message string, fields map[string]interface{}) {
	l.log(Debug, listingID, requestID, message, fields)
}

// WithDuration logs an info entry annotated with an elapsed-time field,
// for timing adapter calls and rule evaluation passes.
func (l *Logger) WithDuration(listingID, requestID, message string, d time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["duration_ms"] = float64(d.Microseconds()) / 1000.0
	l.Info(listingID, requestID, message, fields)
}
