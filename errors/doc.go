// Package errors provides the structured error type used across readflow.
//
// Every fault the pipeline can surface is an *AppError carrying a
// machine-readable code. Data-level rejections (an unmatchable duplex pair,
// an incomplete family) are not errors and never reach this package; only
// configuration mistakes and structural misuse of the graph do.
package errors
