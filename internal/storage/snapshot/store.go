package snapshot

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/syncx-go/internal/storage"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/pkg/cmap"
	"github.com/yndnr/syncx-go/pkg/host"
)

var magicBytes = []byte("SYNCXSNP")

const (
	keyPrefix     = "snapshots/"
	headerVersion = 1
	checksumSize  = sha256.Size

	DefaultRetention = 10
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNotFound         = errors.New("snapshot: not found")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
	ErrInvalidName      = errors.New("snapshot: invalid name")
)

type header struct {
	Version   int    `json:"version"`
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	CreatedAt int64  `json:"created_at"`
	// Encryption names the payload cipher; empty for plain JSON.
	Encryption string `json:"enc,omitempty"`
}

// Info describes a stored snapshot.
type Info struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	Count     int    `json:"count" yaml:"count"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
	Size      int    `json:"size" yaml:"size"`
	Checksum  string `json:"checksum" yaml:"checksum"`
	Encrypted bool   `json:"encrypted" yaml:"encrypted"`
}

// Store saves and loads snapshots.
type Store struct {
	kv   storage.KVEngine
	keep int
	log  logger.Logger

	mu      sync.Mutex
	entropy io.Reader

	passphrase []byte
	sealMu     sync.Mutex
	sealer     *sealer
}

// Option configures a Store.
type Option func(*Store)

// WithRetention keeps at most n snapshots per name. Zero keeps everything.
func WithRetention(n int) Option {
	return func(s *Store) {
		s.keep = n
	}
}

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithPassphrase encrypts payloads written by the store and lets it read
// encrypted ones. Headers stay readable, so List works without it.
func WithPassphrase(p []byte) Option {
	return func(s *Store) {
		s.passphrase = p
	}
}

// NewStore creates a snapshot store over kv.
func NewStore(kv storage.KVEngine, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		keep:    DefaultRetention,
		log:     logger.Default(),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) newID(now time.Time) (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.New(ulid.Timestamp(now), s.entropy)
}

func validName(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func prefixFor(name string) []byte {
	return []byte(keyPrefix + name + "/")
}

// Save stores payload as the newest snapshot of name and applies retention.
// kind and count are recorded in the header for listing.
func (s *Store) Save(ctx context.Context, name, kind string, count int, payload any) (*Info, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	now := time.Now()
	id, err := s.newID(now)
	if err != nil {
		return nil, fmt.Errorf("snapshot: new id: %w", err)
	}

	sl, err := s.sealerFor(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal payload: %w", err)
	}
	hdr := header{
		Version:   headerVersion,
		Kind:      kind,
		Count:     count,
		CreatedAt: now.UnixMilli(),
	}
	key := append(prefixFor(name), id.String()...)
	if sl != nil {
		if data, err = sl.seal(data, key); err != nil {
			return nil, err
		}
		hdr.Encryption = sealAlgorithm
	}
	record, sum, err := encode(hdr, data)
	if err != nil {
		return nil, err
	}

	if err := s.kv.Set(ctx, key, record); err != nil {
		return nil, fmt.Errorf("snapshot: write: %w", err)
	}

	if s.keep > 0 {
		if _, err := s.Prune(ctx, name, s.keep); err != nil {
			s.log.Warn("snapshot retention failed", "name", name, "error", err)
		}
	}

	s.log.Debug("snapshot saved", "name", name, "id", id.String(), "count", count, "size", len(record))
	return &Info{
		ID:        id.String(),
		Name:      name,
		Kind:      kind,
		Count:     count,
		CreatedAt: hdr.CreatedAt,
		Size:      len(record),
		Checksum:  hex.EncodeToString(sum),
		Encrypted: hdr.Encryption != "",
	}, nil
}

func encode(hdr header, payload []byte) ([]byte, []byte, error) {
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magicBytes) + 4 + len(hdrJSON) + len(payload) + checksumSize)
	buf.Write(magicBytes)
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(hdrJSON)))
	buf.Write(n[:])
	buf.Write(hdrJSON)
	buf.Write(payload)

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), sum[:], nil
}

func decode(record []byte) (header, []byte, []byte, error) {
	var hdr header
	if len(record) < len(magicBytes)+4+checksumSize || !bytes.Equal(record[:len(magicBytes)], magicBytes) {
		return hdr, nil, nil, ErrInvalidMagic
	}
	body, trailer := record[:len(record)-checksumSize], record[len(record)-checksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return hdr, nil, nil, ErrChecksumMismatch
	}

	rest := body[len(magicBytes):]
	hdrLen := int(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if hdrLen > len(rest) {
		return hdr, nil, nil, ErrChecksumMismatch
	}
	if err := json.Unmarshal(rest[:hdrLen], &hdr); err != nil {
		return hdr, nil, nil, fmt.Errorf("snapshot: decode header: %w", err)
	}
	return hdr, rest[hdrLen:], trailer, nil
}

func infoFor(name, id string, record []byte, hdr header, sum []byte) *Info {
	return &Info{
		ID:        id,
		Name:      name,
		Kind:      hdr.Kind,
		Count:     hdr.Count,
		CreatedAt: hdr.CreatedAt,
		Size:      len(record),
		Checksum:  hex.EncodeToString(sum),
		Encrypted: hdr.Encryption != "",
	}
}

// Load decodes snapshot id of name into out.
func (s *Store) Load(ctx context.Context, name, id string, out any) (*Info, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	sl, err := s.sealerFor(ctx)
	if err != nil {
		return nil, err
	}
	key := append(prefixFor(name), id...)
	record, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, name, id)
		}
		return nil, err
	}
	hdr, payload, sum, err := decode(record)
	if err != nil {
		return nil, err
	}
	if payload, err = plaintext(sl, key, hdr, payload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, fmt.Errorf("snapshot: decode payload: %w", err)
	}
	return infoFor(name, id, record, hdr, sum), nil
}

// Latest decodes the newest readable snapshot of name into out. Corrupted
// records are skipped.
func (s *Store) Latest(ctx context.Context, name string, out any) (*Info, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	sl, err := s.sealerFor(ctx)
	if err != nil {
		return nil, err
	}
	prefix := prefixFor(name)

	var (
		info    *Info
		loadErr error
	)
	err = s.kv.Scan(ctx, prefix, true, func(key, record []byte) bool {
		id := string(key[len(prefix):])
		hdr, payload, sum, err := decode(record)
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			s.log.Warn("skipping corrupted snapshot", "name", name, "id", id, "error", err)
			return true
		}
		if err == nil {
			payload, err = plaintext(sl, key, hdr, payload)
		}
		if err == nil {
			err = json.Unmarshal(payload, out)
		}
		if err != nil {
			loadErr = err
			return false
		}
		info = infoFor(name, id, record, hdr, sum)
		return false
	})
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", name, loadErr)
	}
	if info == nil {
		return nil, ErrNoSnapshots
	}
	return info, nil
}

// List returns the snapshots of name, oldest first. Corrupted records are
// listed with an empty checksum.
func (s *Store) List(ctx context.Context, name string) ([]Info, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	prefix := prefixFor(name)
	var out []Info
	err := s.kv.Scan(ctx, prefix, false, func(key, record []byte) bool {
		id := string(key[len(prefix):])
		hdr, _, sum, err := decode(record)
		if err != nil {
			out = append(out, Info{ID: id, Name: name, Size: len(record)})
			return true
		}
		out = append(out, *infoFor(name, id, record, hdr, sum))
		return true
	})
	return out, err
}

// Prune deletes all but the newest keep snapshots of name and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	prefix := prefixFor(name)
	var stale [][]byte
	seen := 0
	err := s.kv.Scan(ctx, prefix, true, func(key, _ []byte) bool {
		seen++
		if seen > keep {
			stale = append(stale, key)
		}
		return true
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	if err := s.kv.DeleteMany(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// SaveMap snapshots the entries of m.
func SaveMap[K, V any](ctx context.Context, s *Store, name string, m *cmap.Map[K, V]) (*Info, error) {
	state := m.State()
	defer func() {
		for _, e := range state {
			host.DecRef(e.Key)
			host.DecRef(e.Value)
		}
	}()
	return s.Save(ctx, name, "map", len(state), state)
}

// RestoreMap replaces the contents of m with the latest snapshot of name.
func RestoreMap[K, V any](ctx context.Context, s *Store, name string, m *cmap.Map[K, V]) (*Info, error) {
	var state []cmap.Entry[K, V]
	info, err := s.Latest(ctx, name, &state)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(state); err != nil {
		return nil, err
	}
	return info, nil
}

// SaveSet snapshots the members of set.
func SaveSet[K any](ctx context.Context, s *Store, name string, set *cmap.Set[K]) (*Info, error) {
	state := set.State()
	defer func() {
		for _, k := range state {
			host.DecRef(k)
		}
	}()
	return s.Save(ctx, name, "set", len(state), state)
}

// RestoreSet replaces the members of set with the latest snapshot of name.
func RestoreSet[K any](ctx context.Context, s *Store, name string, set *cmap.Set[K]) (*Info, error) {
	var state []K
	info, err := s.Latest(ctx, name, &state)
	if err != nil {
		return nil, err
	}
	if err := set.Restore(state); err != nil {
		return nil, err
	}
	return info, nil
}
