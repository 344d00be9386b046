// Package config provides configuration management for the webmvc server.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file: $WEBMVC_CONFIG, or config.yaml / configs/config.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables are named WEBMVC_<SECTION>_<FIELD>:
//
//	WEBMVC_SERVER_PORT=8080
//	WEBMVC_LOGGING_LEVEL=debug
//	WEBMVC_DISPATCH_SCAN_PACKAGES=webmvc/internal/app/controller/...
//	WEBMVC_DISPATCH_REGISTRY_ORDER=manual,annotation
//	WEBMVC_DISPATCH_MANUAL_ROUTES="GET /=index;GET /logout=logout"
//
// # Validation
//
// The loaded configuration is checked with go-playground/validator struct
// tags. Load fails on the first invalid section.
package config
