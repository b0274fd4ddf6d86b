package json

import (
	"github.com/curtisnewbie/taskq/util/errs"
	jsoniter "github.com/json-iterator/go"
)

var (
	config = jsoniter.Config{EscapeHTML: true, SortMapKeys: true}.Froze()
)

// Parse json bytes.
func ParseJson(body []byte, ptr any) error {
	if err := config.Unmarshal(body, ptr); err != nil {
		return errs.WrapErrf(err, "failed to parse json")
	}
	return nil
}

// Parse json bytes.
func ParseJsonAs[T any](body []byte) (T, error) {
	var t T
	return t, ParseJson(body, &t)
}

// Write json as bytes.
func WriteJson(body any) ([]byte, error) {
	b, err := config.Marshal(body)
	if err != nil {
		return nil, errs.WrapErrf(err, "failed to write json")
	}
	return b, nil
}

// Write json as string.
func SWriteJson(body any) (string, error) {
	b, err := WriteJson(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
