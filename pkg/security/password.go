package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mvalenz/bazario-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash signals a hash string that is not a valid Argon2id encoding.
var ErrMalformedHash = fmt.Errorf("malformed argon2id hash")

const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

// HashPassword derives an Argon2id hash and encodes it in the standard
// $argon2id$v=19$... format so parameters travel with the hash.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	p := boundedParams(cfg)
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.memory, p.iterations, p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash. The
// comparison is constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	p, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func boundedParams(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memory:      clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		iterations:  clamp(cfg.ArgonTime, 1, 10),
		parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen:     clamp(cfg.ArgonSaltLen, 8, 64),
		keyLen:      clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrMalformedHash
	}

	var p argonParams
	for _, token := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(token, "=", 2)
		if len(kv) != 2 {
			return argonParams{}, nil, nil, ErrMalformedHash
		}
		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return argonParams{}, nil, nil, ErrMalformedHash
		}
		switch kv[0] {
		case "m":
			p.memory = uint32(v)
		case "t":
			p.iterations = uint32(v)
		case "p":
			if v > 255 {
				return argonParams{}, nil, nil, ErrMalformedHash
			}
			p.parallelism = uint8(v)
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, ErrMalformedHash
	}

	p.saltLen = uint32(len(salt))
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

func clamp(value, min, max int) uint32 {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return uint32(value)
}

// GenerateReference produces a random uppercase alphanumeric token, used for
// withdrawal reference numbers and affiliate link codes.
func GenerateReference(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return string(out), nil
}
