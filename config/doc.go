// Package config loads and validates voicekit configuration.
//
// Configuration is layered: a YAML config file provides the base, a .env
// file may supply secrets, and VOICEKIT_* environment variables override
// both. Section structs carry validate tags and are checked with the
// validator library after defaults are applied.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	log, err := logger.New(cfg.Logging)
package config
