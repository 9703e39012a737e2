// Package wallet provides the identity used to sign network requests: an
// Arweave-style RSA keypair stored as a JWK, loadable from a file or literal
// key material, generated and persisted on first use when neither is given.
package wallet

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
	"github.com/pawanpaudel93/ao-deploy/internal/fsutil"
)

// DefaultPath is where a generated wallet is persisted, relative to the
// user's home directory.
const DefaultPath = "~/.ao-deploy/wallet.json"

// Signer is the identity capability the deployer needs: a public address and
// a signing function. Close releases any held session; it is safe to call
// more than once, and the status string tells delegated implementations how
// the deployment concluded.
type Signer interface {
	Address() string
	Sign(data []byte) ([]byte, error)
	Close(status string) error
}

// jwk is the JSON Web Key representation of an RSA private key, matching the
// wallet files Arweave tooling produces.
type jwk struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	DP  string `json:"dp,omitempty"`
	DQ  string `json:"dq,omitempty"`
	QI  string `json:"qi,omitempty"`
}

// keySigner is the file/literal/generated variant of Signer.
type keySigner struct {
	key     *rsa.PrivateKey
	address string
	close   sync.Once
}

// Resolve produces a Signer from a wallet reference: a path to a JWK file,
// literal JWK JSON, or the empty string. An empty reference loads the wallet
// at DefaultPath, generating and persisting a fresh keypair there on first
// use.
func Resolve(ctx context.Context, ref string) (Signer, error) {
	switch {
	case strings.HasPrefix(strings.TrimSpace(ref), "{"):
		return fromJSON([]byte(ref))
	case ref != "":
		path, err := fsutil.ExpandHome(ref)
		if err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading wallet file: %w", err)
		}
		return fromJSON(raw)
	default:
		return loadOrCreateDefault(ctx)
	}
}

// loadOrCreateDefault reuses the persisted default wallet, creating one when
// none exists yet.
func loadOrCreateDefault(ctx context.Context) (Signer, error) {
	path, err := fsutil.ExpandHome(DefaultPath)
	if err != nil {
		return nil, err
	}
	if fsutil.FileExists(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading default wallet: %w", err)
		}
		return fromJSON(raw)
	}

	ctxlog.FromContext(ctx).Info("No wallet supplied, generating a new keypair.", "path", path)
	key, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	raw, err := json.Marshal(toJWK(key))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, fmt.Errorf("persisting generated wallet: %w", err)
	}
	return newKeySigner(key)
}

func fromJSON(raw []byte) (Signer, error) {
	var k jwk
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("parsing wallet JWK: %w", err)
	}
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported wallet key type %q", k.Kty)
	}
	key, err := k.privateKey()
	if err != nil {
		return nil, err
	}
	return newKeySigner(key)
}

func newKeySigner(key *rsa.PrivateKey) (*keySigner, error) {
	address, err := ownerAddress(key.N)
	if err != nil {
		return nil, err
	}
	return &keySigner{key: key, address: address}, nil
}

// ownerAddress derives the 43-character network address from the public
// modulus: base64url(sha256(modulus bytes)).
func ownerAddress(n *big.Int) (string, error) {
	if n == nil || n.Sign() <= 0 {
		return "", fmt.Errorf("wallet modulus missing")
	}
	digest := sha256.Sum256(n.Bytes())
	return base64.RawURLEncoding.EncodeToString(digest[:]), nil
}

func (s *keySigner) Address() string {
	return s.address
}

// Sign produces an RSA-PSS signature over data, matching the signature
// scheme the network expects from wallet owners.
func (s *keySigner) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: 32,
		Hash:       crypto.SHA256,
	})
}

// Close is a no-op for key-material signers; the sync.Once only guards
// against double-release bookkeeping if cleanup is ever added.
func (s *keySigner) Close(string) error {
	s.close.Do(func() {})
	return nil
}

func (k *jwk) privateKey() (*rsa.PrivateKey, error) {
	n, err := decodeField(k.N, "n")
	if err != nil {
		return nil, err
	}
	e, err := decodeField(k.E, "e")
	if err != nil {
		return nil, err
	}
	d, err := decodeField(k.D, "d")
	if err != nil {
		return nil, err
	}
	p, err := decodeField(k.P, "p")
	if err != nil {
		return nil, err
	}
	q, err := decodeField(k.Q, "q")
	if err != nil {
		return nil, err
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		},
		D:      new(big.Int).SetBytes(d),
		Primes: []*big.Int{new(big.Int).SetBytes(p), new(big.Int).SetBytes(q)},
	}
	key.Precompute()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return key, nil
}

func decodeField(value, name string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("wallet JWK missing field %q", name)
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("wallet JWK field %q: %w", name, err)
	}
	return raw, nil
}

func toJWK(key *rsa.PrivateKey) *jwk {
	enc := base64.RawURLEncoding.EncodeToString
	return &jwk{
		Kty: "RSA",
		N:   enc(key.N.Bytes()),
		E:   enc(big.NewInt(int64(key.E)).Bytes()),
		D:   enc(key.D.Bytes()),
		P:   enc(key.Primes[0].Bytes()),
		Q:   enc(key.Primes[1].Bytes()),
		DP:  enc(key.Precomputed.Dp.Bytes()),
		DQ:  enc(key.Precomputed.Dq.Bytes()),
		QI:  enc(key.Precomputed.Qinv.Bytes()),
	}
}
