package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// Build scripts may overwrite embed_config.yaml with a site configuration
// before compiling; it sits between the defaults and the external file.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
