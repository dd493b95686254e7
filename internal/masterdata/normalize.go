package masterdata

import (
	"bytes"
	"encoding/json"
)

// envelope is the {success, data} wrapper some endpoints use.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// normalizeList accepts either a bare JSON array or a successful envelope
// around one. Empty bodies, null and any other shape decode to an empty list.
// Only malformed JSON is an error.
func normalizeList[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}
	if !json.Valid(body) {
		return nil, errInvalidFormat(body)
	}

	switch body[0] {
	case '[':
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return []T{}, nil
		}
		return nonNil(out), nil
	case '{':
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil || !env.Success {
			return []T{}, nil
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return []T{}, nil
		}
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return []T{}, nil
		}
		return nonNil(out), nil
	}
	return []T{}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
