package textcodec

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	replacementCharacterConstant        = "�"
	unsupportedEncodingTemplateConstant = "unsupported text encoding %q: %w"
	unavailableEncodingTemplateConstant = "text encoding %q has no decoder"
	utf8EncodingNameConstant            = "utf-8"
	utf8EncodingAliasConstant           = "utf8"
)

// Decoder turns raw bytes into valid UTF-8 text, replacing undecodable sequences with U+FFFD.
type Decoder struct {
	encodingName   string
	sourceEncoding encoding.Encoding
}

// NewDecoder builds a decoder for the IANA encoding name. Empty names and UTF-8 decode as UTF-8.
func NewDecoder(encodingName string) (*Decoder, error) {
	trimmedEncodingName := strings.ToLower(strings.TrimSpace(encodingName))
	if len(trimmedEncodingName) == 0 || trimmedEncodingName == utf8EncodingNameConstant || trimmedEncodingName == utf8EncodingAliasConstant {
		return &Decoder{encodingName: utf8EncodingNameConstant}, nil
	}

	sourceEncoding, lookupError := ianaindex.IANA.Encoding(trimmedEncodingName)
	if lookupError != nil {
		return nil, fmt.Errorf(unsupportedEncodingTemplateConstant, encodingName, lookupError)
	}
	if sourceEncoding == nil {
		return nil, fmt.Errorf(unavailableEncodingTemplateConstant, encodingName)
	}

	return &Decoder{encodingName: trimmedEncodingName, sourceEncoding: sourceEncoding}, nil
}

// EncodingName reports the normalized name of the source encoding.
func (decoder *Decoder) EncodingName() string {
	if decoder == nil {
		return utf8EncodingNameConstant
	}
	return decoder.encodingName
}

// Decode converts data to text. It never fails; bytes that cannot be decoded become U+FFFD.
func (decoder *Decoder) Decode(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if decoder == nil || decoder.sourceEncoding == nil {
		return strings.ToValidUTF8(string(data), replacementCharacterConstant)
	}

	decodedData, decodeError := decoder.sourceEncoding.NewDecoder().Bytes(data)
	if decodeError != nil {
		return strings.ToValidUTF8(string(data), replacementCharacterConstant)
	}
	return strings.ToValidUTF8(string(decodedData), replacementCharacterConstant)
}
