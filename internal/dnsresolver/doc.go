// Package dnsresolver sends a single A query to a single DNS server and
// classifies the way it failed, if it failed.
//
// It is the leaf of dnsfan: the engine builds one Client and calls Resolve
// once per configured server, concurrently.
//
// # Basic Usage
//
//	c := dnsresolver.New(2*time.Second, dnsresolver.WithNet("udp"))
//	addrs, err := c.Resolve(ctx, "9.9.9.9:53", "example.com")
//	switch dnsresolver.Classify(err) {
//	case dnsresolver.Success:
//		fmt.Println(addrs)
//	case dnsresolver.Timeout:
//		fmt.Println("no answer in time")
//	case dnsresolver.Refused:
//		fmt.Println("server refused the connection")
//	default:
//		fmt.Println("failed:", err)
//	}
//
// # Classification
//
// Every error returned by Resolve is a *Error carrying a Kind:
//   - Timeout: the context deadline or the socket deadline expired
//   - Refused: ECONNREFUSED somewhere in the error chain (for UDP this is
//     the ICMP port-unreachable surfaced on read)
//   - Other: ErrEmptyHostname, ErrEmptyMsg, ErrRcode, ErrNoRecords, or any
//     network error that is neither of the above
//
// # Retries
//
// There are none. Each call is a single attempt bounded by the Client
// timeout, so the counts a caller derives reflect per-server liveness.
//
// # Thread Safety
//
// A Client holds no per-query state and is safe for concurrent use.
package dnsresolver
