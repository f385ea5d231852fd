// Package app contains the core application logic. It turns a loaded
// configuration model plus command line overrides into an experiment and runs
// it, decoupled from any specific entrypoint like a CLI.
package app
