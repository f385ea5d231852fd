// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface that concrete formats such as
// HCL implement.
//
// Every optional setting is a pointer or a nil slice, so the app can tell an
// omitted setting from an explicit zero value and apply defaults and command
// line overrides on top of the model.
package config
