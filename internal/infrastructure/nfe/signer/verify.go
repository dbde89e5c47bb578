package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// ErrInvalidSignature la firma no corresponde al contenido o al certificado embebido.
var ErrInvalidSignature = errors.New("nfe: firma inválida")

// Verify recalcula el digest de <infNFe> y valida SignatureValue con el certificado de KeyInfo.
func Verify(signedXML []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return fmt.Errorf("%w: parsear XML: %v", ErrInvalidSignature, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != rootTag {
		return fmt.Errorf("%w: la raíz debe ser <NFe>", ErrInvalidSignature)
	}
	children := root.ChildElements()
	if len(children) == 0 || children[len(children)-1].Tag != signatureTag {
		return fmt.Errorf("%w: <Signature> debe ser el último hijo de <NFe>", ErrInvalidSignature)
	}
	sigEl := children[len(children)-1]
	inf := root.SelectElement(signedTag)
	if inf == nil {
		return fmt.Errorf("%w: no se encontró <infNFe>", ErrInvalidSignature)
	}

	si := sigEl.SelectElement("SignedInfo")
	if si == nil {
		return fmt.Errorf("%w: falta SignedInfo", ErrInvalidSignature)
	}
	if alg := attrOf(si, "SignatureMethod"); alg != AlgRSASHA1 {
		return fmt.Errorf("%w: SignatureMethod %q", ErrInvalidSignature, alg)
	}
	ref := si.SelectElement("Reference")
	if ref == nil {
		return fmt.Errorf("%w: falta Reference", ErrInvalidSignature)
	}
	if uri := ref.SelectAttrValue("URI", ""); uri != "#"+inf.SelectAttrValue(idAttr, "") {
		return fmt.Errorf("%w: Reference %q no apunta a infNFe", ErrInvalidSignature, uri)
	}
	if alg := attrOf(ref, "DigestMethod"); alg != AlgSHA1 {
		return fmt.Errorf("%w: DigestMethod %q", ErrInvalidSignature, alg)
	}

	// Digest
	canonInf, err := canonicalize(inf, root.SelectAttrValue("xmlns", pkgnfe.Namespace))
	if err != nil {
		return fmt.Errorf("%w: canonicalizar infNFe: %v", ErrInvalidSignature, err)
	}
	digest := sha1.Sum(canonInf)
	if got := textOf(ref, "DigestValue"); got != base64.StdEncoding.EncodeToString(digest[:]) {
		return fmt.Errorf("%w: DigestValue no coincide", ErrInvalidSignature)
	}

	// Certificado embebido
	certEl := sigEl.FindElement("./KeyInfo/X509Data/X509Certificate")
	if certEl == nil {
		return fmt.Errorf("%w: falta X509Certificate", ErrInvalidSignature)
	}
	der, err := base64.StdEncoding.DecodeString(compact(certEl.Text()))
	if err != nil {
		return fmt.Errorf("%w: X509Certificate: %v", ErrInvalidSignature, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("%w: X509Certificate: %v", ErrInvalidSignature, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: el certificado no es RSA", ErrInvalidSignature)
	}

	// SignatureValue
	sigValue, err := base64.StdEncoding.DecodeString(compact(textOf(sigEl, "SignatureValue")))
	if err != nil {
		return fmt.Errorf("%w: SignatureValue: %v", ErrInvalidSignature, err)
	}
	canonSI, err := canonicalize(si, sigEl.SelectAttrValue("xmlns", NamespaceDS))
	if err != nil {
		return fmt.Errorf("%w: canonicalizar SignedInfo: %v", ErrInvalidSignature, err)
	}
	hashed := sha1.Sum(canonSI)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, hashed[:], sigValue); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func attrOf(parent *etree.Element, tag string) string {
	if el := parent.SelectElement(tag); el != nil {
		return el.SelectAttrValue("Algorithm", "")
	}
	return ""
}

func textOf(parent *etree.Element, tag string) string {
	if el := parent.SelectElement(tag); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// compact elimina saltos de línea y espacios del base64.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
