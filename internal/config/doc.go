// Package config loads the list of DNS servers dnsfan queries, together
// with the per-query settings.
//
// # Configuration Structure
//
// The file may be a bare list of servers:
//
//	- ip: 1.1.1.1
//	- ip: 8.8.8.8:53
//	- ip: 9.9.9.9
//
// or a mapping that also carries query settings:
//
//	servers:
//	  - ip: 1.1.1.1
//	    name: cloudflare
//	  - ip: 8.8.8.8
//	    name: google
//	query:
//	  timeout: 2s   # per-query timeout
//	  net: udp      # udp or tcp
//
// # Basic Usage
//
//	cfg, err := config.New("resolver-list.yml").Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, s := range cfg.Servers {
//		addr, _ := s.Addr() // "1.1.1.1:53"
//	}
//
// # Configuration Validation
//
// Load validates the file and reports every problem at once:
//   - the list must not be empty (ErrNoServers)
//   - every ip must be an IP literal with an optional port
//   - no two entries may resolve to the same host:port
//   - timeout must be between 100ms and 1m
//   - net must be udp or tcp
//
// # Defaults
//
// Missing settings default to a 2 second timeout over udp. Entries
// without a port use port 53. There is no default server list: a missing
// file is reported as ErrNoConfig.
//
// # Error Handling
//
//   - ErrNoConfig: the file does not exist
//   - ErrInvalidConfig: validation failed; the wrapped error lists every problem
//   - ErrNoServers: the list is empty (wrapped in ErrInvalidConfig)
package config
