package qrx_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/aussiebroadwan/twofa/pkg/qrx"
	"github.com/stretchr/testify/require"
)

const uri = "otpauth://totp/test:andrew@example.com?algorithm=SHA1&digits=6&issuer=test&period=30&secret=JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

func TestPNG(t *testing.T) {
	raw, err := qrx.PNG(uri, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, qrx.DefaultSize, img.Bounds().Dx())
}

func TestPNGEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		_, err := qrx.PNG(in, 128)
		require.ErrorIs(t, err, qrx.ErrEmptyContent)
	}
}

func TestDataURI(t *testing.T) {
	out, err := qrx.DataURI(uri, 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}
