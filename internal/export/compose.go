package export

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// ComposeHTML builds the single-page document the composer prints: one
// <img> holding the raster, absolutely positioned at p on a page of the
// given size.
func ComposeHTML(raster []byte, enc Encoding, page Page, p Placement) string {
	mime := "image/png"
	if enc == EncodingJPEG {
		mime = "image/jpeg"
	}
	src := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raster)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  @page { size: %[1]spt %[2]spt; margin: 0; }
  html, body { margin: 0; padding: 0; width: %[1]spt; height: %[2]spt; overflow: hidden; background: #ffffff; }
  img { position: absolute; left: %[3]spt; top: %[4]spt; width: %[5]spt; height: %[6]spt; }
</style>
</head>
<body><img src="%[7]s" alt=""></body>
</html>
`,
		pt(page.Width), pt(page.Height),
		pt(p.X), pt(p.Y), pt(p.Width), pt(p.Height),
		src,
	)
}

func pt(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
