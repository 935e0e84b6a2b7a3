// Package config resolves Cadence client settings with viper: built-in
// defaults, then $HOME/.cadence/config.yaml (or --config), then CADENCE_*
// environment variables, then command-line flags. It also loads session
// drafts for `cadence session create -f`.
package config
