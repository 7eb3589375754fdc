// Package airq provides a client for the local HTTP API of
// air-Q air quality sensors.
//
// # Basic Usage
//
//	ctx := context.Background()
//	client, err := airq.NewClient("192.168.1.60", "device-password")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := client.FetchCurrentData(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := airq.NewClient("a123f_air-q.local", password,
//	    airq.WithHTTPClient(httpClient),
//	    airq.WithTimeout(5*time.Second),
//	    airq.WithLogger(slog.Default()),
//	)
//
// The *http.Client is owned by the caller. It may be shared between
// several Clients and is never closed or reconfigured by this package.
//
// # Protocol
//
// The device answers plain HTTP requests with a JSON envelope whose
// "content" field holds base64(IV || ciphertext). The payload is
// AES-256-CBC encrypted with a key derived from the device password
// (the password bytes right-padded with ASCII '0' to 32 bytes) and
// PKCS#7 padded. The API does not support TLS. For security, isolate
// air-Q devices on a dedicated VLAN.
//
// # Errors
//
// Every fetch either returns a complete result or one of
// *ConnectionError, *AuthenticationError or *ProtocolError. A wrong
// password surfaces as *AuthenticationError.
package airq
