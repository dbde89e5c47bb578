// Constantes XMLDSig usadas por la SEFAZ para la NF-e 4.00.

package signer

const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// Elementos del documento involucrados en la firma.
const (
	rootTag      = "NFe"
	signedTag    = "infNFe"
	signatureTag = "Signature"
	idAttr       = "Id"
)
