// Package server implements the HTTP surface of the file manager: the four
// file endpoints (upload, list, delete, download), the embedded browser UI,
// and the health, metrics and activity endpoints. It wires the storage
// driver, the optional activity log and the middleware chain together and
// provides lifecycle helpers used by tests and the production binary.
package server
