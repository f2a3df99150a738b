// Package config handles loading and validating Gray Logic Node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (GRAYLOGIC_NODE_*)
//   - Validation of required fields, collecting every problem at once
//   - Default value handling
//
// The task list is the node's task registry source: each entry declares the
// device kind, the value names, formats and enumeration labels used by the
// broker bridge.
//
// Security Considerations:
//   - Broker credentials and the InfluxDB token should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/node.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Node.Name)
package config
