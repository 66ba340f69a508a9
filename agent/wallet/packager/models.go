package packager

// envelope is the legacy JWE envelope. Only the protected header is read
// here, the packers do the rest.
type envelope struct {
	Protected string `json:"protected"`
}

type protected struct {
	Enc        string      `json:"enc"`
	Typ        string      `json:"typ"`
	Alg        string      `json:"alg"`
	Recipients []recipient `json:"recipients"`
}

type recipient struct {
	Header header `json:"header"`
}

type header struct {
	KID string `json:"kid"`
}

const keyRecord = "KeyRecord"

// keyRep maps our verkey to its KMS key ID.
type keyRep struct {
	Verkey string `json:"verkey"`
	KID    string `json:"kid"`
}

func (k *keyRep) RecordID() string   { return k.Verkey }
func (k *keyRep) RecordType() string { return keyRecord }
func (k *keyRep) Tags() map[string]string {
	return map[string]string{"verkey": k.Verkey}
}
