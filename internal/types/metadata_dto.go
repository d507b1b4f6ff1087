package types

// MetadataDocument is the off-chain JSON document a token's metadata URI points at.
type MetadataDocument struct {
	Name                 string              `json:"name"`
	Symbol               string              `json:"symbol"`
	Description          string              `json:"description"`
	Image                string              `json:"image,omitempty"`
	AnimationURL         string              `json:"animation_url"`
	ExternalURL          string              `json:"external_url"`
	SellerFeeBasisPoints uint16              `json:"seller_fee_basis_points"`
	Attributes           []MetadataAttribute `json:"attributes"`
	Properties           MetadataProperties  `json:"properties"`
}

// MetadataAttribute 元数据属性（trait_type/value）
type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type MetadataProperties struct {
	Files    []MetadataFile `json:"files"`
	Category string         `json:"category"`
	Creators []Creator      `json:"creators"`
}

type MetadataFile struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Attribute returns the value of the named trait and whether it is present.
func (d MetadataDocument) Attribute(traitType string) (string, bool) {
	for _, a := range d.Attributes {
		if a.TraitType == traitType {
			return a.Value, true
		}
	}
	return "", false
}
