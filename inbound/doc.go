// Package inbound exposes the gateway callback endpoint.
//
// POST /watcher reads the hex envelope from the request, runs it through the
// watcher and answers without waiting for notification delivery. Every
// decoding, authentication or parse failure is reported to the caller as the
// same generic 500 response.
package inbound
