// Package config loads kvstore.json.
//
// # Configuration File Structure
//
//	{
//	  "server":  { "host": "localhost", "port": 7070 },
//	  "log":     { "level": "info", "format": "text" },
//	  "metrics": { "enabled": true, "namespace": "kvstore", "path": "/metrics" },
//	  "tracing": { "enabled": false, "tracerName": "kvstore" },
//	  "seed":    { "counter": 0 }
//	}
//
// Missing fields take the values of New. Seed values are decoded as plain
// JSON, so numbers arrive as float64.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
