// Package tlsroots serves TLS for the metrics endpoint.
//
// A Keypair holds the server certificate and reloads it when the cert or
// key file changes, so rotation needs no restart. LoadClientCAs builds the
// pool used to require client certificates.
package tlsroots
