package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minArgon2Memory  uint32 = 8 * 1024
	minArgon2Time    uint32 = 1
	minArgon2Threads uint8  = 1
	minSaltLength    uint32 = 16
	minKeyLength     uint32 = 16
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Memory     uint32 `json:"memory"`
	Time       uint32 `json:"time"`
	Threads    uint8  `json:"threads"`
	SaltLength uint32 `json:"salt_length"`
	KeyLength  uint32 `json:"key_length"`
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:     19 * 1024,
		Time:       2,
		Threads:    1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// Argon2 produces PHC strings:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// Verification reads the parameters from the digest, so older digests keep
// verifying after the configured cost changes.
type Argon2 struct {
	params Argon2Params
}

func NewArgon2(p Argon2Params) (*Argon2, error) {
	switch {
	case p.Memory < minArgon2Memory:
		return nil, fmt.Errorf("argon2 memory must be >= %d KiB", minArgon2Memory)
	case p.Time < minArgon2Time:
		return nil, errors.New("argon2 time must be >= 1")
	case p.Threads < minArgon2Threads:
		return nil, errors.New("argon2 threads must be >= 1")
	case p.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	return &Argon2{params: p}, nil
}

func (a *Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.params.Time, a.params.Memory, a.params.Threads, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		AlgorithmArgon2id, argon2.Version,
		a.params.Memory, a.params.Time, a.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2) Verify(digest, plaintext string) (bool, error) {
	d, err := parseArgon2(digest)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(plaintext), d.salt, d.params.Time, d.params.Memory, d.params.Threads, uint32(len(d.key)))

	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

type argon2Digest struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

var errInvalidDigest = errors.New("invalid argon2 digest")

func parseArgon2(digest string) (*argon2Digest, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgorithmArgon2id {
		return nil, errInvalidDigest
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", errInvalidDigest, parts[2])
	}

	d := &argon2Digest{}
	var threads uint64
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errInvalidDigest
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s", errInvalidDigest, k)
		}
		switch k {
		case "m":
			d.params.Memory = uint32(n)
		case "t":
			d.params.Time = uint32(n)
		case "p":
			threads = n
		default:
			return nil, fmt.Errorf("%w: parameter %s", errInvalidDigest, k)
		}
	}
	if d.params.Memory < minArgon2Memory || d.params.Time < minArgon2Time || threads < 1 || threads > 255 {
		return nil, fmt.Errorf("%w: parameters out of range", errInvalidDigest)
	}
	d.params.Threads = uint8(threads)

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", errInvalidDigest)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) < int(minKeyLength) {
		return nil, fmt.Errorf("%w: key", errInvalidDigest)
	}

	return d, nil
}
