package ncm

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Outcome is the normalized result of a successful write call.
type Outcome struct {
	StatusCode int
	Label      string
	// Message is set for 200 responses, where the body is discarded.
	Message string
	// Body is the raw response body for 201, 202 and 204 responses.
	Body json.RawMessage
}

// Record decodes the body as a JSON object. An empty body yields an empty
// record.
func (o *Outcome) Record() (Record, error) {
	rec := Record{}
	if o == nil || len(o.Body) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(o.Body, &rec); err != nil {
		return nil, fmt.Errorf("ncm: decode %s response: %w", o.Label, err)
	}
	return rec, nil
}

// interpret maps an HTTP status to an outcome or a typed error and emits
// one log line summarizing it.
func (s *session) interpret(status int, body []byte, label string) (*Outcome, error) {
	logger := s.log.WithFields(log.Fields{"label": label, "status": status})
	switch status {
	case http.StatusOK:
		msg := label + " operation successful."
		s.logEvent(logger, log.InfoLevel, msg)
		return &Outcome{StatusCode: status, Label: label, Message: msg}, nil
	case http.StatusCreated:
		s.logEvent(logger, log.InfoLevel, label+" created successfully.")
		return &Outcome{StatusCode: status, Label: label, Body: body}, nil
	case http.StatusAccepted:
		s.logEvent(logger, log.InfoLevel, label+" accepted successfully.")
		return &Outcome{StatusCode: status, Label: label, Body: body}, nil
	case http.StatusNoContent:
		s.logEvent(logger, log.InfoLevel, label+" deleted successfully.")
		return &Outcome{StatusCode: status, Label: label, Body: body}, nil
	}

	apiErr := &APIError{Kind: kindForStatus(status), StatusCode: status, Label: label, Body: string(body)}
	if apiErr.Kind == KindUnknown {
		s.logEvent(logger, log.WarnLevel, fmt.Sprintf("Unexpected status %d: %s", status, body))
	} else {
		s.logEvent(logger, log.ErrorLevel, fmt.Sprintf("%s: %s", apiErr.Kind, body))
	}
	return nil, apiErr
}

func (s *session) logEvent(logger log.FieldLogger, level log.Level, msg string) {
	if !s.logEvents {
		return
	}
	switch level {
	case log.ErrorLevel:
		logger.Error(msg)
	case log.WarnLevel:
		logger.Warn(msg)
	default:
		logger.Info(msg)
	}
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusInternalServerError:
		return KindServerError
	default:
		return KindUnknown
	}
}

// isSuccess reports a 2xx status.
func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// statusError builds the error for a non-2xx read response.
func (s *session) statusError(status int, body []byte, label string) error {
	_, err := s.interpret(status, body, label)
	if err == nil {
		return &APIError{Kind: KindUnknown, StatusCode: status, Label: label, Body: string(body)}
	}
	return err
}
