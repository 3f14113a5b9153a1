package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Variants []Variant `yaml:"variants"`
}

// BuiltinCatalog lists the combinations the vendor has been seen to accept:
// every URL and header shape with the phone/message body, then every body shape
// on the token-path URL with the Client-Token header.
func BuiltinCatalog() []Variant {
	var out []Variant

	for _, u := range []URLShape{URLTokenPath, URLInstancePath, URLQueryToken} {
		for _, h := range []HeaderShape{HeaderNone, HeaderBearer, HeaderClientToken, HeaderBoth} {
			out = append(out, Variant{URL: u, Header: h, Body: BodyPhoneMessage})
		}
	}

	for _, b := range []BodyShape{BodyNumberMessage, BodyToMessage, BodyChatIDBody, BodyToTextBody} {
		out = append(out, Variant{URL: URLTokenPath, Header: HeaderClientToken, Body: b})
	}

	return out
}

// LoadCatalog reads variants from a YAML file:
//
//	variants:
//	  - name: zapi-send-text
//	    url: token-path
//	    header: client-token
//	    body: phone-message
func LoadCatalog(path string) ([]Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variants file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse variants file: %w", err)
	}

	if len(file.Variants) == 0 {
		return nil, fmt.Errorf("variants file %s declares no variants", path)
	}

	for i, v := range file.Variants {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("variant #%d (%s): %w", i+1, v.Label(), err)
		}
	}

	return file.Variants, nil
}

// Lookup finds a catalog entry by name.
func Lookup(catalog []Variant, name string) (Variant, bool) {
	for _, v := range catalog {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ResolveVariant accepts either a catalog name or the "<url>/<header>/<body>" form.
func ResolveVariant(catalog []Variant, value string) (Variant, error) {
	if v, ok := Lookup(catalog, value); ok {
		return v, nil
	}
	return ParseVariant(value)
}
