package simpleexport

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantData []byte
		wantMime string
	}{
		{"png pixel", "data:image/png;base64,AAECAw==", []byte{0, 1, 2, 3}, "image/png"},
		{"params before marker", "data:text/plain;charset=utf-8;base64,aGVsbG8=", []byte("hello"), "text/plain"},
		{"without data prefix", "text/csv;base64,YSxi", []byte("a,b"), "text/csv"},
		{"missing padding", "data:text/plain;base64,aGVsbG8", []byte("hello"), "text/plain"},
		{"whitespace in payload", "data:text/plain;base64,aGVs\nbG8=", []byte("hello"), "text/plain"},
		{"upper case marker", "data:text/plain;BASE64,aGk=", []byte("hi"), "text/plain"},
		{"empty mime", "data:;base64,/w==", []byte{0xff}, ""},
		{"empty payload", "data:text/plain;base64,", []byte{}, "text/plain"},
		{"upper case scheme", "DATA:image/png;base64,AAE=", []byte{0, 1}, "image/png"},
		{"mixed case scheme", "Data:text/plain;base64,aGk", []byte("hi"), "text/plain"},
		{"padding completes group", "data:;base64,QQ==", []byte("A"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := DecodeDataURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, data)
			assert.Equal(t, tt.wantMime, mime)
		})
	}
}

func TestDecodeDataURL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no comma", "data:text/plain;base64", ErrMalformedDataURL},
		{"not base64 encoded", "data:text/plain,hello", ErrMalformedDataURL},
		{"bad alphabet", "data:text/plain;base64,@@@@", ErrInvalidBase64},
		{"impossible length", "data:text/plain;base64,a", ErrInvalidBase64},
		{"padding in short group", "data:text/plain;base64,QQ=", ErrInvalidBase64},
		{"padding after full group", "data:text/plain;base64,QUJD=", ErrInvalidBase64},
		{"three padding signs", "data:text/plain;base64,Q===", ErrInvalidBase64},
		{"padding mid payload", "data:text/plain;base64,QQ==QQ==", ErrInvalidBase64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeDataURL(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.input, decodeErr.Input)
		})
	}
}

func TestDecodeDataURL_PreservesLength(t *testing.T) {
	payloads := [][]byte{
		{},
		{0},
		{0xff, 0xfe, 0xfd},
		[]byte("plain ascii text"),
		[]byte("héllo wörld"),
		make([]byte, 1024),
	}

	for _, payload := range payloads {
		encoded := base64.StdEncoding.EncodeToString(payload)
		blob, err := NewBlobBuilder().BuildFromDataURL("data:application/octet-stream;base64," + encoded)
		require.NoError(t, err)
		assert.Equal(t, len(payload), blob.Size())
		assert.Equal(t, payload, blob.Bytes())
	}
}

func TestDecodeError_TruncatesInput(t *testing.T) {
	long := "data:text/plain," + strings.Repeat("A", 200)
	_, _, err := DecodeDataURL(long)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 120)
}
