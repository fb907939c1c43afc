package schema

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
)

// RequestFromJSON reads a solver request from a JSON file. Decoding goes
// through mapstructure keyed on the json tags so the CLI accepts the same
// payloads as the HTTP surface.
func RequestFromJSON(file string) (*Request, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return nil, err
	}

	var request Request
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &request,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	return &request, nil
}
