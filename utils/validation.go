// Package utils holds syntactic validation helpers shared by the stores and
// the verifier.
package utils

import (
	"fmt"
	"strings"
)

// ValidateTransactionHash checks that a claimed payment reference is a
// well-formed EVM transaction hash (0x + 64 hex characters). It says nothing
// about whether the transaction exists.
func ValidateTransactionHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}
	if !strings.HasPrefix(hash, "0x") {
		return fmt.Errorf("transaction hash must start with 0x")
	}
	if len(hash) != 66 {
		return fmt.Errorf("transaction hash must be 66 characters long")
	}
	if !isHexString(hash[2:]) {
		return fmt.Errorf("transaction hash must be valid hex")
	}
	return nil
}

// ValidateAddress checks that an address is a well-formed EVM address
// (0x + 40 hex characters). Checksum casing is not required.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("address must start with 0x")
	}
	if len(address) != 42 {
		return fmt.Errorf("address must be 42 characters long")
	}
	if !isHexString(address[2:]) {
		return fmt.Errorf("address must be valid hex")
	}
	return nil
}

func isHexString(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
