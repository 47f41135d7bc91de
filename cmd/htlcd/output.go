package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iov-one/htlc/errors"
)

// writeJSON prints v as indented JSON followed by a new line.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type errorResponse struct {
	Code uint32 `json:"code"`
	Log  string `json:"log"`
}

// writeError prints the code and the message of err. Errors without a
// registered code, such as invalid command usage, are printed as they are.
func writeError(w io.Writer, err error) {
	code, _ := errors.Info(err, false)
	if werr := writeJSON(w, errorResponse{Code: code, Log: err.Error()}); werr != nil {
		fmt.Fprintln(w, err)
	}
}
