// Package errors provides structured, actionable error messages for
// forma.
//
// Errors carry a stable code, a plain-language explanation, a fix
// suggestion, and a documentation link. The CLI prints them through
// Format; the HTTP layer serializes them through FormatJSON.
//
// # Error Categories
//
//   - runtime: rendering and session errors
//   - data: data source resolution and saved query errors
//   - script: event handler compilation errors
//   - export: artifact generation and publishing errors
//   - config: forma.json errors
//   - server: HTTP and project persistence errors
//
// # Usage
//
//	err := errors.New("E021").
//	    WithDetail("Query \"sales-2024\" is not configured").
//	    WithSuggestion("Add the query under data.queries in forma.json")
//
//	errors.PrintError(err)
package errors
