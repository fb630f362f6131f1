// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package curve provides a CurveZMQ-style security mechanism built on
// NaCl boxes (Curve25519 + XSalsa20-Poly1305).
//
// The handshake exchanges transient key pairs authenticated by the
// server's long-term key, then encrypts every frame with the shared
// transient key:
//
//	C -> S: HELLO    client transient public key
//	S -> C: WELCOME  server transient public key, boxed by the
//	                 server's long-term key
//	C -> S: INITIATE client long-term public key + boxed metadata
//	S -> C: READY    boxed metadata
package curve

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"

	"github.com/edgelink/zsock"
	"github.com/edgelink/zsock/z85"
)

const (
	// KeySize is the Curve25519 key size.
	KeySize = 32
	// NonceSize is the NaCl box nonce size.
	NonceSize = 24
	// BoxOverhead is the NaCl box authentication overhead.
	BoxOverhead = box.Overhead
)

var (
	ErrInvalidKey       = errors.New("curve: invalid key size")
	ErrDecryptionFailed = errors.New("curve: decryption failed")
	ErrHandshake        = errors.New("curve: handshake failed")
)

// KeyPair is a Curve25519 key pair.
type KeyPair struct {
	Public [KeySize]byte
	Secret [KeySize]byte
}

// GenerateKeyPair generates a new Curve25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	public, secret, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("curve: could not generate key pair: %w", err)
	}
	return &KeyPair{Public: *public, Secret: *secret}, nil
}

// NewKeyPair creates a key pair from existing keys.
func NewKeyPair(public, secret [KeySize]byte) *KeyPair {
	return &KeyPair{Public: public, Secret: secret}
}

// NewKeyPairFromZ85 creates a key pair from Z85-encoded keys.
func NewKeyPairFromZ85(publicZ85, secretZ85 string) (*KeyPair, error) {
	public, err := DecodeKeyZ85(publicZ85)
	if err != nil {
		return nil, err
	}
	secret, err := DecodeKeyZ85(secretZ85)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: public, Secret: secret}, nil
}

// PublicKeyZ85 returns the public key encoded as a Z85 string.
func (kp *KeyPair) PublicKeyZ85() (string, error) {
	return z85.EncodeToString(kp.Public[:])
}

// SecretKeyZ85 returns the secret key encoded as a Z85 string.
func (kp *KeyPair) SecretKeyZ85() (string, error) {
	return z85.EncodeToString(kp.Secret[:])
}

// DecodeKeyZ85 decodes a Z85-encoded 32-byte key.
func DecodeKeyZ85(s string) ([KeySize]byte, error) {
	var key [KeySize]byte
	raw, err := z85.DecodeString(s)
	if err != nil {
		return key, err
	}
	if len(raw) != KeySize {
		return key, ErrInvalidKey
	}
	copy(key[:], raw)
	return key, nil
}

// Security implements the CURVE mechanism. Frame payloads pass
// through untouched until the handshake completes, since the
// handshake commands carry their own boxes.
type Security struct {
	keys         *KeyPair
	serverPublic [KeySize]byte // server long-term public key (client side)
	transient    *KeyPair
	shared       [KeySize]byte // precomputed transient-transient key
	ready        bool
}

// NewClientSecurity creates the client-side mechanism. serverPublic
// is the server's long-term public key the client authenticates
// against.
func NewClientSecurity(keys *KeyPair, serverPublic [KeySize]byte) *Security {
	return &Security{keys: keys, serverPublic: serverPublic}
}

// NewServerSecurity creates the server-side mechanism.
func NewServerSecurity(keys *KeyPair) *Security {
	return &Security{keys: keys}
}

// Type implements zsock.Security.
func (*Security) Type() zsock.SecurityType { return zsock.CurveSecurity }

// Handshake implements zsock.Security.
func (sec *Security) Handshake(conn *zsock.Conn, server bool) error {
	if sec.keys == nil {
		return fmt.Errorf("%w: no long-term key pair", ErrHandshake)
	}
	if server {
		return sec.handshakeServer(conn)
	}
	return sec.handshakeClient(conn)
}

func (sec *Security) handshakeClient(conn *zsock.Conn) error {
	transient, err := GenerateKeyPair()
	if err != nil {
		return err
	}
	sec.transient = transient

	if err := conn.SendCmd(zsock.CmdHello, transient.Public[:]); err != nil {
		return fmt.Errorf("%w: could not send HELLO: %v", ErrHandshake, err)
	}

	cmd, err := conn.RecvCmd()
	if err != nil {
		return fmt.Errorf("%w: could not recv WELCOME: %v", ErrHandshake, err)
	}
	if cmd.Name != zsock.CmdWelcome {
		return fmt.Errorf("%w: expected WELCOME, got %q", ErrHandshake, cmd.Name)
	}
	// WELCOME proves the peer holds the server's long-term secret.
	raw, err := openBox(cmd.Body, &sec.serverPublic, &transient.Secret)
	if err != nil || len(raw) != KeySize {
		return fmt.Errorf("%w: could not authenticate server", ErrHandshake)
	}
	var serverTransient [KeySize]byte
	copy(serverTransient[:], raw)
	box.Precompute(&sec.shared, &serverTransient, &transient.Secret)

	md, err := conn.Meta.Marshal()
	if err != nil {
		return err
	}
	initiate, err := sealBox(md, &serverTransient, &sec.keys.Secret)
	if err != nil {
		return err
	}
	if err := conn.SendCmd(zsock.CmdInitiate, append(sec.keys.Public[:], initiate...)); err != nil {
		return fmt.Errorf("%w: could not send INITIATE: %v", ErrHandshake, err)
	}

	cmd, err = conn.RecvCmd()
	if err != nil {
		return fmt.Errorf("%w: could not recv READY: %v", ErrHandshake, err)
	}
	if cmd.Name != zsock.CmdReady {
		return fmt.Errorf("%w: expected READY, got %q", ErrHandshake, cmd.Name)
	}
	peerMD, err := openShared(cmd.Body, &sec.shared)
	if err != nil {
		return fmt.Errorf("%w: could not open READY metadata", ErrHandshake)
	}
	if err := conn.Peer.Meta.Unmarshal(peerMD); err != nil {
		return err
	}

	sec.ready = true
	return nil
}

func (sec *Security) handshakeServer(conn *zsock.Conn) error {
	cmd, err := conn.RecvCmd()
	if err != nil {
		return fmt.Errorf("%w: could not recv HELLO: %v", ErrHandshake, err)
	}
	if cmd.Name != zsock.CmdHello || len(cmd.Body) != KeySize {
		return fmt.Errorf("%w: malformed HELLO", ErrHandshake)
	}
	var clientTransient [KeySize]byte
	copy(clientTransient[:], cmd.Body)

	transient, err := GenerateKeyPair()
	if err != nil {
		return err
	}
	sec.transient = transient

	welcome, err := sealBox(transient.Public[:], &clientTransient, &sec.keys.Secret)
	if err != nil {
		return err
	}
	if err := conn.SendCmd(zsock.CmdWelcome, welcome); err != nil {
		return fmt.Errorf("%w: could not send WELCOME: %v", ErrHandshake, err)
	}
	box.Precompute(&sec.shared, &clientTransient, &transient.Secret)

	cmd, err = conn.RecvCmd()
	if err != nil {
		return fmt.Errorf("%w: could not recv INITIATE: %v", ErrHandshake, err)
	}
	if cmd.Name != zsock.CmdInitiate || len(cmd.Body) < KeySize {
		return fmt.Errorf("%w: malformed INITIATE", ErrHandshake)
	}
	var clientPublic [KeySize]byte
	copy(clientPublic[:], cmd.Body[:KeySize])
	peerMD, err := openBox(cmd.Body[KeySize:], &clientPublic, &transient.Secret)
	if err != nil {
		return fmt.Errorf("%w: could not authenticate client", ErrHandshake)
	}
	if err := conn.Peer.Meta.Unmarshal(peerMD); err != nil {
		return err
	}

	md, err := conn.Meta.Marshal()
	if err != nil {
		return err
	}
	ready, err := sealShared(md, &sec.shared)
	if err != nil {
		return err
	}
	if err := conn.SendCmd(zsock.CmdReady, ready); err != nil {
		return fmt.Errorf("%w: could not send READY: %v", ErrHandshake, err)
	}

	sec.ready = true
	return nil
}

// Encrypt implements zsock.Security. The wire form of a frame is
// [24-octet nonce][box].
func (sec *Security) Encrypt(w io.Writer, data []byte) (int, error) {
	if !sec.ready {
		return w.Write(data)
	}
	sealed, err := sealShared(data, &sec.shared)
	if err != nil {
		return 0, err
	}
	return w.Write(sealed)
}

// Decrypt implements zsock.Security.
func (sec *Security) Decrypt(w io.Writer, data []byte) (int, error) {
	if !sec.ready {
		return w.Write(data)
	}
	opened, err := openShared(data, &sec.shared)
	if err != nil {
		return 0, err
	}
	return w.Write(opened)
}

func newNonce() ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nonce, fmt.Errorf("curve: could not generate nonce: %w", err)
	}
	return nonce, nil
}

func sealBox(msg []byte, peer, priv *[KeySize]byte) ([]byte, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}
	return box.Seal(nonce[:], msg, &nonce, peer, priv), nil
}

func openBox(data []byte, peer, priv *[KeySize]byte) ([]byte, error) {
	if len(data) < NonceSize+BoxOverhead {
		return nil, ErrDecryptionFailed
	}
	var nonce [NonceSize]byte
	copy(nonce[:], data[:NonceSize])
	out, ok := box.Open(nil, data[NonceSize:], &nonce, peer, priv)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

func sealShared(msg []byte, shared *[KeySize]byte) ([]byte, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}
	return box.SealAfterPrecomputation(nonce[:], msg, &nonce, shared), nil
}

func openShared(data []byte, shared *[KeySize]byte) ([]byte, error) {
	if len(data) < NonceSize+BoxOverhead {
		return nil, ErrDecryptionFailed
	}
	var nonce [NonceSize]byte
	copy(nonce[:], data[:NonceSize])
	out, ok := box.OpenAfterPrecomputation(nil, data[NonceSize:], &nonce, shared)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

var _ zsock.Security = (*Security)(nil)
