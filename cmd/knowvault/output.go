package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// printJSON writes v to stdout as indented JSON. CLI output is always
// JSON so callers (agents, scripts) never have to scrape human text.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func printError(err error) {
	_ = printJSON(errorEnvelope{Error: err.Error()})
}

func fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
