package tray

// iconData is a 16x16 template PNG rendered as a solid glyph. macOS treats
// template icons as masks, so a flat black square displays correctly in both
// light and dark menu bars.
var iconData = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x18, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x60, 0x60, 0xf8,
	0x4f, 0x21, 0x1e, 0x35, 0x60, 0xd4, 0x80, 0x51, 0x03, 0x86, 0x87, 0x01,
	0x00, 0x9b, 0xcc, 0xff, 0x01, 0xa2, 0xe8, 0x6f, 0xa6, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
