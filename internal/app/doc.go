// Package app contains the application lifecycle: it loads configuration,
// builds the logger, and runs either the processing pipeline or the
// structural analysis, decoupled from any specific entrypoint like a CLI.
package app
