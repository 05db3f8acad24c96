package certificate

import (
	"crypto/x509"
	"encoding/pem"
)

//nolint:staticcheck // x509.IsEncryptedPEMBlock is deprecated but is the only decoder for RFC 1423 keys
func x509IsEncrypted(b *pem.Block) bool {
	return x509.IsEncryptedPEMBlock(b)
}

//nolint:staticcheck // see x509IsEncrypted
func x509Decrypt(b *pem.Block, password string) ([]byte, error) {
	return x509.DecryptPEMBlock(b, []byte(password))
}
