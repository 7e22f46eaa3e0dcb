// Package config provides configuration parsing for the shell command.
//
// The configuration is stored in shell.json. This package handles
// loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "baseURL": "http://localhost:3000/",
//	  "pollInterval": "5ms",
//	  "activationTimeout": "10s",
//	  "navigateTimeout": "30s",
//	  "server": {
//	    "addr": ":3000",
//	    "routes": ["/", "main/users", "users/{id}"],
//	    "productionMode": false,
//	    "maxApps": 0,
//	    "pingInterval": "30s"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "shell"
//	  }
//	}
//
// Durations use time.ParseDuration syntax. An empty activationTimeout
// waits for the client runtime without a limit.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    return err
//	}
//	poll := cfg.PollIntervalDuration()
package config
