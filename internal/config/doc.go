// Package config loads calagent settings from the environment and an
// optional .env file.
package config
