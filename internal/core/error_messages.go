package core

// error_messages.go turns failures into the short message, suggested action
// and support code a client shows to the person who uploaded the file.
//
//	FILE001  file larger than the upload limit
//	FILE002  bytes that do not parse as CSV
//	FILE003  bytes no configured encoding accepts
//	FILE004  request without a file
//	FILE005  file without data rows (or without readable text at all)
//	CONV001  unexpected failure while converting
//	UPL002   every conversion slot busy for the whole wait window
//	UPL004   client went away mid-conversion
//	UPL005   request deadline reached
//	RATE001  per-IP request budget spent
//	ERR000   anything else; the server log has the detail under the request id
//
// Errors from this package are recognised with errors.Is. Errors raised
// elsewhere (net/http, the web layer) are recognised by their text.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is the client-facing form of an error.
type UserMessage struct {
	Message string // What went wrong, in the user's terms
	Action  string // What the user can do next
	Code    string // Support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the export into smaller files",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File could not be read as CSV",
		Action:  "Export the report again as CSV (comma or semicolon separated)",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains characters in an unsupported encoding",
		Action:  "Save the file as UTF-8 or Windows (ANSI)",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "no file provided",
		Action:  "Choose a CSV export before uploading",
		Code:    "FILE004",
	}
	msgEmpty = UserMessage{
		Message: "The file has no data rows",
		Action:  "Upload an export that contains at least one service order",
		Code:    "FILE005",
	}
	msgConversion = UserMessage{
		Message: "The file could not be converted",
		Action:  "Try again; if it keeps failing, send the file to support",
		Code:    "CONV001",
	}
	msgBusy = UserMessage{
		Message: "Other files are being converted right now",
		Action:  "Wait a few seconds and upload again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "The upload was interrupted",
		Action:  "Send the file again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "The conversion took too long",
		Action:  "Try a smaller export or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many uploads from this address",
		Action:  "Wait a minute before uploading again",
		Code:    "RATE001",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Try again or contact support",
		Code:    "ERR000",
	}
)

// byTarget is checked in order with errors.Is. Request lifetime comes first
// because a cancelled conversion is also a processing error, and the empty
// kinds come before ErrInvalidEncoding because they wrap it. ErrInvalidCSV
// travels inside a processing error, so it precedes ErrProcessing.
var byTarget = []struct {
	target error
	msg    UserMessage
}{
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
	{ErrMissingInput, msgNoFile},
	{ErrDecodeExhausted, msgEmpty},
	{ErrEmptyResult, msgEmpty},
	{ErrTooManyConversions, msgBusy},
	{ErrInvalidEncoding, msgEncoding},
	{ErrInvalidCSV, msgInvalidCSV},
	{ErrProcessing, msgConversion},
}

// byText matches lower-cased error text for errors without a sentinel.
var byText = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"rate limit", msgRateLimited},
	{"invalid csv", msgInvalidCSV},
	{"encoding error", msgEncoding},
	{"no file provided", msgNoFile},
	{"empty file", msgEmpty},
}

// MapError returns the user message for err, or the ERR000 message when
// nothing matches. A nil error maps to the zero UserMessage.
//
//	msg := MapError(ErrEmptyResult)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, t := range byTarget {
		if errors.Is(err, t.target) {
			return t.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range byText {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return msgUnknown
}

// FormatUserError renders MapError(err) as one line:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
