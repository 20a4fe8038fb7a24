package textcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codedeck/internal/textcodec"
)

func TestDecoderDecode(testInstance *testing.T) {
	testCases := []struct {
		name           string
		encodingName   string
		input          []byte
		expectedOutput string
	}{
		{
			name:           "default_utf8",
			encodingName:   "",
			input:          []byte("hello\n"),
			expectedOutput: "hello\n",
		},
		{
			name:           "invalid_utf8_replaced",
			encodingName:   "utf-8",
			input:          []byte{'a', 0xff, 'b'},
			expectedOutput: "a�b",
		},
		{
			name:           "code_page_850",
			encodingName:   "IBM850",
			input:          []byte{0x82, 't', 0x82},
			expectedOutput: "été",
		},
		{
			name:           "latin1",
			encodingName:   "ISO-8859-1",
			input:          []byte{0xe9},
			expectedOutput: "é",
		},
		{
			name:           "empty_input",
			encodingName:   "",
			input:          nil,
			expectedOutput: "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			decoder, creationError := textcodec.NewDecoder(testCase.encodingName)
			require.NoError(testInstance, creationError)
			require.Equal(testInstance, testCase.expectedOutput, decoder.Decode(testCase.input))
		})
	}
}

func TestNewDecoderRejectsUnknownEncoding(testInstance *testing.T) {
	decoder, creationError := textcodec.NewDecoder("definitely-not-an-encoding")
	require.Error(testInstance, creationError)
	require.Nil(testInstance, decoder)
}

func TestNilDecoderFallsBackToUTF8(testInstance *testing.T) {
	var decoder *textcodec.Decoder
	require.Equal(testInstance, "x�", decoder.Decode([]byte{'x', 0xfe}))
	require.Equal(testInstance, "utf-8", decoder.EncodingName())
}
