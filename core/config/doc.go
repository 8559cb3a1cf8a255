// Package config provides configuration management for roster-sync.
//
// Values come from environment variables, optionally seeded from a .env file,
// with defaults taken from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: listen ports and the optional API key
//   - Remote: players backend base URL, event feed URL and reconnect delay
//   - Sync: how long surfaced errors stay visible
//   - Storage: MinIO credentials and roster export settings
//   - Log: logging level and format
//   - Database: connection details for the reference backend
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Remote.BaseURL)
package config
