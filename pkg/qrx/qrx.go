// Package qrx renders provisioning URIs as QR images for authenticator apps.
package qrx

import (
	"encoding/base64"
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qrx: content cannot be empty")
	ErrEncode       = errors.New("qrx: failed to encode QR code")
)

const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// PNG encodes content at medium error correction. A non-positive size uses
// DefaultSize.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return png, nil
}

// DataURI returns the PNG as an inline data URI suitable for an <img> src.
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
