// Firma XMLDSig enveloped de la NF-e 4.00: C14N 1.0, RSA-SHA1, Reference "#NFe{chave}".
// <Signature> queda como último hijo de <NFe>, después de <infNFe>.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// DigitalSignatureService firma el documento e inserta el nodo <Signature>.
type DigitalSignatureService struct{}

var _ pkgnfe.Signer = (*DigitalSignatureService)(nil)

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign implementa pkg/nfe.Signer. Los bytes de entrada no se reformatean: la firma se inserta
// textualmente antes del cierre </NFe>, así lo firmado es exactamente lo que se transmite.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, creds *pkgnfe.Credentials) ([]byte, error) {
	if creds == nil || creds.Certificate == nil || creds.PrivateKey == nil {
		return nil, &domainnfe.SigningError{Reason: "sin credenciales"}
	}
	key, err := rsaKey(creds)
	if err != nil {
		return nil, &domainnfe.SigningError{Reason: "llave privada", Err: err}
	}
	if len(xmlBytes) == 0 {
		return nil, &domainnfe.SigningError{Reason: "XML vacío"}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, &domainnfe.SigningError{Reason: "parsear XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != rootTag {
		return nil, &domainnfe.SigningError{Reason: "la raíz debe ser <NFe>"}
	}
	if root.SelectElement(signatureTag) != nil {
		return nil, &domainnfe.SigningError{Reason: "el documento ya está firmado"}
	}
	inf := root.SelectElement(signedTag)
	if inf == nil {
		return nil, &domainnfe.SigningError{Reason: "no se encontró <infNFe>"}
	}
	id := inf.SelectAttrValue(idAttr, "")
	if id == "" {
		return nil, &domainnfe.SigningError{Reason: "<infNFe> sin atributo Id"}
	}

	// 1) Digest SHA-1 del infNFe canonicalizado
	canonInf, err := canonicalize(inf, root.SelectAttrValue("xmlns", pkgnfe.Namespace))
	if err != nil {
		return nil, &domainnfe.SigningError{Reason: "canonicalizar infNFe", Err: err}
	}
	digest := sha1.Sum(canonInf)

	// 2) SignedInfo
	sigEl := etree.NewElement(signatureTag)
	sigEl.CreateAttr("xmlns", NamespaceDS)
	signedInfo := buildSignedInfo(sigEl, "#"+id, base64.StdEncoding.EncodeToString(digest[:]))

	// 3) RSA-SHA1 sobre SignedInfo canonicalizado
	canonSI, err := canonicalize(signedInfo, NamespaceDS)
	if err != nil {
		return nil, &domainnfe.SigningError{Reason: "canonicalizar SignedInfo", Err: err}
	}
	hashed := sha1.Sum(canonSI)
	sigValue, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, hashed[:])
	if err != nil {
		return nil, &domainnfe.SigningError{Reason: "firmar SignedInfo", Err: err}
	}
	sigEl.CreateElement("SignatureValue").SetText(base64.StdEncoding.EncodeToString(sigValue))

	// 4) KeyInfo con el certificado en base64 (sin cabeceras PEM)
	sigEl.CreateElement("KeyInfo").
		CreateElement("X509Data").
		CreateElement("X509Certificate").
		SetText(base64.StdEncoding.EncodeToString(creds.Certificate.Raw))

	sigBytes, err := serialize(sigEl)
	if err != nil {
		return nil, &domainnfe.SigningError{Reason: "serializar Signature", Err: err}
	}
	return insertBeforeRootEnd(xmlBytes, sigBytes)
}

func buildSignedInfo(sigEl *etree.Element, uri, digestB64 string) *etree.Element {
	si := sigEl.CreateElement("SignedInfo")
	si.CreateElement("CanonicalizationMethod").CreateAttr("Algorithm", AlgC14N)
	si.CreateElement("SignatureMethod").CreateAttr("Algorithm", AlgRSASHA1)

	ref := si.CreateElement("Reference")
	ref.CreateAttr("URI", uri)
	transforms := ref.CreateElement("Transforms")
	transforms.CreateElement("Transform").CreateAttr("Algorithm", TransformEnveloped)
	transforms.CreateElement("Transform").CreateAttr("Algorithm", AlgC14N)
	ref.CreateElement("DigestMethod").CreateAttr("Algorithm", AlgSHA1)
	ref.CreateElement("DigestValue").SetText(digestB64)
	return si
}

// canonicalize aplica C14N 1.0 inclusivo a una copia desacoplada de el, declarando
// explícitamente el namespace por defecto heredado del ancestro.
func canonicalize(el *etree.Element, defaultNS string) ([]byte, error) {
	c := el.Copy()
	if c.SelectAttr("xmlns") == nil {
		c.CreateAttr("xmlns", defaultNS)
	}
	return dsig.MakeC14N10RecCanonicalizer().Canonicalize(c)
}

func serialize(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.SetRoot(el)
	return doc.WriteToBytes()
}

func insertBeforeRootEnd(xmlBytes, sig []byte) ([]byte, error) {
	closing := []byte("</" + rootTag + ">")
	idx := bytes.LastIndex(xmlBytes, closing)
	if idx < 0 {
		return nil, &domainnfe.SigningError{Reason: fmt.Sprintf("no se encontró %s", closing)}
	}
	out := make([]byte, 0, len(xmlBytes)+len(sig))
	out = append(out, xmlBytes[:idx]...)
	out = append(out, sig...)
	out = append(out, xmlBytes[idx:]...)
	return out, nil
}
