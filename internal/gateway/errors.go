package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized matches any 401 returned through the gateway.  By the time
// a caller sees it the session has been cleared and a login redirect recorded.
var ErrUnauthorized = errors.New("gateway: authentication required")

// ErrNetwork wraps transport failures and timeouts.  Callers show a generic
// message; nothing is retried.
var ErrNetwork = errors.New("gateway: network error")

// APIError is a non-2xx response from the remote service.  Fields holds
// field-keyed validation messages, NonField the non_field_errors list and
// Detail the first of detail/message/error.
type APIError struct {
	Status   int
	Fields   map[string][]string
	NonField []string
	Detail   string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.NonField) > 0 {
		msg = strings.Join(e.NonField, " ")
	}
	if msg == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msg = "invalid " + strings.Join(keys, ", ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("remote status %d: %s", e.Status, msg)
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Structured reports whether the response carried a readable error payload.
func (e *APIError) Structured() bool {
	return len(e.Fields) > 0 || len(e.NonField) > 0 || e.Detail != ""
}

// First returns the first message for field, or "".
func (e *APIError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

var detailKeys = []string{"detail", "message", "error"}

// metaKeys accompany a detail message and are not field errors.
var metaKeys = []string{"code", "details", "suggestion", "messages"}

// parseAPIError decodes the error payload styles the remote service emits:
// {"field": ["msg"]}, {"field": "msg"}, {"non_field_errors": [...]},
// {"detail": "..."} and a bare ["msg", ...] list.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if len(body) == 0 {
		return e
	}
	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		e.NonField = list
		return e
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return e
	}
	for _, k := range detailKeys {
		if raw, ok := obj[k]; ok {
			if msgs := messages(raw); len(msgs) > 0 && e.Detail == "" {
				e.Detail = msgs[0]
			}
			delete(obj, k)
		}
	}
	for _, k := range metaKeys {
		delete(obj, k)
	}
	if raw, ok := obj["non_field_errors"]; ok {
		e.NonField = messages(raw)
		delete(obj, "non_field_errors")
	}
	for k, raw := range obj {
		msgs := messages(raw)
		if len(msgs) == 0 {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string][]string)
		}
		e.Fields[k] = msgs
	}
	return e
}

func messages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}
