// Package nfe: interfaz para la firma digital del documento (XMLDSig enveloped, NF-e 4.00).

package nfe

import (
	"crypto"
	"crypto/x509"
)

// Credentials material de firma extraído del certificado A1 (.pfx/.p12).
// Se carga una sola vez y es de solo lectura tras la construcción.
type Credentials struct {
	CertificatePEM []byte
	PrivateKeyPEM  []byte
	CommonName     string
	Certificate    *x509.Certificate
	PrivateKey     crypto.Signer
}

// Signer firma el XML de la NF-e e inyecta <Signature> como último hijo de <NFe>.
type Signer interface {
	// Sign toma el XML canónico (sin firma) y las credenciales del emisor y retorna el XML firmado.
	Sign(xmlBytes []byte, creds *Credentials) ([]byte, error)
}
