package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	EventUpdateLocation = "update_location"
	EventTriggerSOS     = "trigger_sos"
	EventAlert          = "alert"
	EventError          = "error"
)

// inboundMessage - кадр от клиента
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outboundMessage - кадр для клиента
type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type locationPayload struct {
	Latitude  *float64 `json:"lat" validate:"required,latitude"`
	Longitude *float64 `json:"lon" validate:"required,longitude"`
}

// sosPayload проверяется сервисом: отсутствие координат - это InvalidInput, а не ошибка разбора
type sosPayload struct {
	Latitude  *float64   `json:"lat"`
	Longitude *float64   `json:"lon"`
	Timestamp clientTime `json:"timestamp"`
}

// clientTime принимает RFC3339-строку или unix-время в миллисекундах
type clientTime struct {
	Time *time.Time
}

func (t *clientTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = nil
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			// строка с числом миллисекунд
			ms, convErr := strconv.ParseInt(s, 10, 64)
			if convErr != nil {
				return fmt.Errorf("timestamp %q is neither RFC3339 nor unix milliseconds", s)
			}
			parsed = time.UnixMilli(ms)
		}
		parsed = parsed.UTC()
		t.Time = &parsed
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("timestamp must be a string or a number: %w", err)
	}
	parsed := time.UnixMilli(int64(ms)).UTC()
	t.Time = &parsed
	return nil
}
