// Package core converts uploaded service-order CSV exports into canonical rows.
//
// The package has no knowledge of HTTP. The web handlers and the csv2json
// command both drive it through a [Pipeline].
//
// # Conversion
//
// A conversion runs in one synchronous pass over an in-memory buffer:
//
//  1. [Decode] tries each configured [Encoding] in order (UTF-8, then
//     Windows-1252 by default). A UTF-8 byte order mark is dropped.
//  2. [Parse] detects the delimiter (',' or ';') from the header line and
//     splits the text into a [Table] of positional [RawRow] values.
//  3. [Reconcile] binds the file's headers to the schema columns by exact
//     name, alias table, then fuzzy containment.
//  4. [Canonicalize] projects every raw row onto the schema, trimming values
//     and applying column cleanup such as the CNPJ / CPF formula stripping.
//
// A candidate encoding whose text fails to parse or parses to no data rows
// is skipped in favour of the next one. [Pipeline.Preview] runs the same
// conversion and reports the column mapping with a sample of rows.
//
// # Error Handling
//
// Conversion failures are *[Error] values classified by [Kind]; use
// errors.Is with [ErrMissingInput], [ErrDecodeExhausted], [ErrEmptyResult]
// or [ErrProcessing]. [MapError] turns any error into a [UserMessage] with a
// support code:
//
//   - FILE001-FILE005: File errors (size, format, encoding, missing, empty)
//   - CONV001: Unexpected conversion failure
//   - UPL002-UPL005: Conversion slot and request lifetime errors
//   - RATE001: Request throttling
//
// # Concurrency
//
// A [Pipeline] and its schema are read-only after construction and may be
// shared by any number of requests. [ConversionLimiter] bounds how many
// conversions run at once.
package core
