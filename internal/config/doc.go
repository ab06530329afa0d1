// Package config loads the navigation engine configuration.
//
// The configuration is stored in nav.json at the project root.
// This package handles loading, saving, validating and converting it to
// router options.
//
// # Configuration File Structure
//
//	{
//	  "routes": "routes.yaml",
//	  "routesDir": "routes",
//	  "paramsInheritanceStrategy": "emptyOnly",
//	  "urlUpdateStrategy": "deferred",
//	  "onSameUrlNavigation": "ignore",
//	  "guardTimeout": "5s",
//	  "preloading": "all",
//	  "initialNavigation": "enabled",
//	  "s3": {
//	    "bucket": "my-routes",
//	    "prefix": "tables",
//	    "region": "eu-west-1"
//	  },
//	  "inspect": {
//	    "addr": "localhost:7070"
//	  },
//	  "metrics": {
//	    "namespace": "nav"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts, err := cfg.RouterOptions()
package config
