package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainDocument  = "cruxtx/document/v1"
	DomainOperation = "cruxtx/operation/v1"
	DomainLog       = "cruxtx/log/v1"
)

// newDomainHash starts a SHA-256 over domain followed by a 0x00 separator,
// so no domain can be a prefix of another's data.
func newDomainHash(domain string) hash.Hash {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return h
}

func hashWithDomain(domain string, data []byte) string {
	h := newDomainHash(domain)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content address of a document from its
// identity and payload.
func DocumentHash(id IRValue, payload IRObject) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"id":      id,
		"payload": payload,
	})
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// OperationHash computes the content address of a transaction operation.
// The variant discriminator is hashed first, ahead of the canonical field
// body, so two variants with identical fields never collide.
func OperationHash(kind string, fields IRObject) (string, error) {
	canonical, err := MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("OperationHash: failed to marshal %s: %w", kind, err)
	}
	h := newDomainHash(DomainOperation)
	h.Write([]byte(kind))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LogHash computes the content address of an ordered sequence of operation
// hashes. Order is significant.
func LogHash(opHashes []string) string {
	h := newDomainHash(DomainLog)
	for _, oh := range opHashes {
		h.Write([]byte(oh))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}
