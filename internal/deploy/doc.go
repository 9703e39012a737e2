// Package deploy orchestrates the deployment of a bundled contract onto the
// AO network. For each request it resolves the signing identity, locates or
// spawns the target process, composes the final contract source, submits it
// for evaluation, and interprets the evaluation result. All network calls
// run under the request's retry policy; batches of requests run under a
// bounded-concurrency scheduler with per-request failure isolation.
package deploy
