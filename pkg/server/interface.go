/*
Package server exposes the tokenizer over HTTP.

The service takes raw UTF-8 text as the body of a POST and answers with a
JSON document whose shape depends on the configured format. Exactly one
format is active for a running instance.

# Routes

	POST /tokenize   body is the text to segment, at most MaxBodyBytes
	GET  /           fixed example tokenization, only with demo enabled
	GET  /health     {"status":"ok"}

The tokenize path is configurable. Every response carries an X-Request-ID
header; a client supplied id is kept.

# Formats

simple returns the surface forms in input order:

	{"tokens": ["すもも", "も", "もも", "も", "もも", "の", "うち"]}

detailed adds the dictionary features of every token:

	[{"text": "すもも", "detail": ["名詞", "一般", "*", "*", "*", "*", "すもも", "スモモ", "スモモ"]}, ...]

native relays the engine's own JSON layout untouched.

# Errors

A request that fails after its body was accepted still answers 200 OK, with
the failure in the body:

	{"error": "invalid utf-8 sequence of 1 bytes from index 0"}

Callers must inspect the body to detect failure. Oversized bodies get 413
and rate limited requests get 429, both with the same error body. A failed
request never affects other requests or the process.
*/
package server

// TokenList is the simple format.
type TokenList struct {
	Tokens []string `json:"tokens"`
}

// DetailedToken is one element of the detailed format.
type DetailedToken struct {
	Text   string   `json:"text"`
	Detail []string `json:"detail"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
