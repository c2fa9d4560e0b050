// Package config provides configuration loading for Waypoint.
//
// Settings come from, in increasing precedence: the defaults in New, a
// waypoint.{json,yaml,toml} file, WAYPOINT_* environment variables and
// command-line flags bound with Loader.BindFlag.
//
// # Configuration File Structure
//
//	manifest: build/manifest.json
//	store:
//	  kind: s3            # fs | s3
//	  bucket: my-app-chunks
//	  prefix: releases/42
//	  region: eu-west-1
//	  timeout: 5s
//	server:
//	  host: 0.0.0.0
//	  port: 3000
//	  metrics: true
//	log:
//	  level: info         # debug | info | warn | error
//	  format: json        # text | json
//
// Nested keys map to environment variables with "." replaced by "_":
// store.bucket is WAYPOINT_STORE_BUCKET.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
