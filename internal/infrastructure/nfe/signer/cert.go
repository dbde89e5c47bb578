// Carga del certificado A1 (PKCS#12) del emisor.

package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"

	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// CredentialLoader carga las credenciales de firma. La implementación por defecto lee un .pfx/.p12.
type CredentialLoader interface {
	Load(path, passphrase string) (*pkgnfe.Credentials, error)
}

// CertificateDecoder extracción de certificado y llave desde bytes ya leídos.
type CertificateDecoder interface {
	Decode(data []byte, passphrase string) (*pkgnfe.Credentials, error)
}

// P12Loader implementa CredentialLoader y CertificateDecoder sobre PKCS#12.
type P12Loader struct{}

var (
	_ CredentialLoader   = P12Loader{}
	_ CertificateDecoder = P12Loader{}
)

// Decode ver DecodeP12.
func (P12Loader) Decode(data []byte, passphrase string) (*pkgnfe.Credentials, error) {
	if len(data) == 0 {
		return nil, &domainnfe.CredentialError{Reason: "bundle vacío"}
	}
	return DecodeP12("", data, passphrase)
}

// Load ver LoadFromP12.
func (P12Loader) Load(path, passphrase string) (*pkgnfe.Credentials, error) {
	return LoadFromP12(path, passphrase)
}

// LoadFromP12 abre el bundle, lo descifra con la contraseña y extrae certificado hoja y llave privada.
// Cualquier fallo es un *nfe.CredentialError.
func LoadFromP12(path, passphrase string) (*pkgnfe.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domainnfe.CredentialError{Path: path, Reason: "no se pudo leer el archivo", Err: err}
	}
	if len(data) == 0 {
		return nil, &domainnfe.CredentialError{Path: path, Reason: "archivo vacío"}
	}
	return DecodeP12(path, data, passphrase)
}

// DecodeP12 igual que LoadFromP12 pero sobre bytes ya leídos. path solo se usa en los errores.
func DecodeP12(path string, data []byte, passphrase string) (*pkgnfe.Credentials, error) {
	// ToPEM acepta bundles con la cadena completa; Decode exige exactamente un certificado.
	blocks, err := pkcs12.ToPEM(data, passphrase)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, &domainnfe.CredentialError{Path: path, Reason: "contraseña incorrecta", Err: err}
		}
		return nil, &domainnfe.CredentialError{Path: path, Reason: "bundle PKCS#12 malformado", Err: err}
	}

	var key crypto.Signer
	var certs []*x509.Certificate
	for _, b := range blocks {
		switch b.Type {
		case "PRIVATE KEY":
			if key != nil {
				continue
			}
			k, err := parsePrivateKey(b.Bytes)
			if err != nil {
				return nil, &domainnfe.CredentialError{Path: path, Reason: "llave privada ilegible", Err: err}
			}
			key = k
		case "CERTIFICATE":
			c, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, &domainnfe.CredentialError{Path: path, Reason: "certificado ilegible", Err: err}
			}
			certs = append(certs, c)
		}
	}
	if key == nil {
		return nil, &domainnfe.CredentialError{Path: path, Reason: "el bundle no contiene llave privada"}
	}
	leaf := matchLeaf(certs, key)
	if leaf == nil {
		return nil, &domainnfe.CredentialError{Path: path, Reason: "el bundle no contiene el certificado de la llave"}
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, &domainnfe.CredentialError{Path: path, Reason: "serializar llave privada", Err: err}
	}
	return &pkgnfe.Credentials{
		CertificatePEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw}),
		PrivateKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		CommonName:     leaf.Subject.CommonName,
		Certificate:    leaf,
		PrivateKey:     key,
	}, nil
}

// parsePrivateKey prueba PKCS#1, EC y PKCS#8 (ToPEM usa PKCS#1 para RSA y SEC1 para EC).
func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("formato de llave desconocido: %w", err)
	}
	signer, ok := k.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("tipo de llave %T no soportado", k)
	}
	return signer, nil
}

// matchLeaf elige el certificado cuya llave pública corresponde a la llave privada.
func matchLeaf(certs []*x509.Certificate, key crypto.Signer) *x509.Certificate {
	type equaler interface{ Equal(crypto.PublicKey) bool }
	pub, ok := key.Public().(equaler)
	if !ok {
		return nil
	}
	for _, c := range certs {
		if pub.Equal(c.PublicKey) {
			return c
		}
	}
	return nil
}

// rsaKey devuelve la llave RSA; la SEFAZ solo acepta RSA-SHA1.
func rsaKey(creds *pkgnfe.Credentials) (*rsa.PrivateKey, error) {
	switch k := creds.PrivateKey.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return nil, fmt.Errorf("llave ECDSA no admitida por la SEFAZ")
	default:
		return nil, fmt.Errorf("tipo de llave %T no soportado", k)
	}
}
