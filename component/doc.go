// Package component defines the lifecycle contract of the infrastructure a
// command depends on and an ordered Registry that starts and stops it.
package component
