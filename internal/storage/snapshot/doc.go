// Package snapshot stores point-in-time copies of syncx collections and
// benchmark results in a storage.KVEngine.
//
// Every record lives under snapshots/<name>/<ulid>, so a prefix scan
// returns a name's history oldest first. A record is laid out as:
//
//	magic "SYNCXSNP" | u32 header length | header JSON | payload JSON | sha256
//
// The trailing digest covers everything before it. Loading the latest
// record skips corrupted ones and falls back to older history.
//
// A store opened WithPassphrase seals payloads with XChaCha20-Poly1305
// under an argon2id key. The salt lives at meta/snapshot-salt and the
// record key is bound in as associated data. Headers stay in clear text.
package snapshot
