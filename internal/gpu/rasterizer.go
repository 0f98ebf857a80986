package gpu

// Polygon command encoding (bits of the opcode byte, 0x20-0x3F):
//   bit 1: semi-transparent
//   bit 2: textured
//   bit 3: true quad (4 vertices) vs triangle (3)
//   bit 4: gouraud shaded (one color word per vertex) vs flat (one color)

func polygonLength(op uint32) (int, bool) {
	if op < 0x20 || op > 0x3F {
		return 0, false
	}
	quad := op&0x08 != 0
	gouraud := op&0x10 != 0
	textured := op&0x04 != 0

	vertices := 3
	if quad {
		vertices = 4
	}

	words := 1 // command word carries the first color
	perVertex := 1
	if textured {
		perVertex++
	}
	words += vertices * perVertex
	if gouraud {
		words += vertices - 1 // one extra color word per additional vertex
	}
	return words, true
}

func lineLength(op uint32) int {
	polyline := op&0x08 != 0
	gouraud := op&0x10 != 0
	if polyline {
		// Polylines are read as a fixed 4-word command, since the FIFO
		// feeder in gpu.go only supports fixed-length commands; drawLine
		// draws only their first segment. Further vertices and the
		// 0x55555555 terminator are not recognized as part of the command.
		_ = gouraud
		return 4
	}
	if gouraud {
		return 4 // command+color0, vertex0, color1, vertex1
	}
	return 3 // command+color, vertex0, vertex1
}

func rectLength(op uint32) int {
	textured := op&0x04 != 0
	size := (op >> 3) & 0x3 // 0=variable,1=1x1,2=8x8,3=16x16
	words := 1              // command + color
	words++                 // vertex
	if textured {
		words++ // texcoord+clut word
	}
	if size == 0 {
		words++ // explicit width/height word
	}
	return words
}

// drawPolygon rasterizes a flat or Gouraud-shaded, textured or untextured
// triangle/quad (a quad as two triangles) with fillTriangle's edge-function
// fill, applying the drawing-area clip. Interpolation is done in floating
// point, not fixed point, and dithering is not applied.
func (g *GPU) drawPolygon(op uint32, params []uint32) {
	quad := op&0x08 != 0
	gouraud := op&0x10 != 0
	textured := op&0x04 != 0
	semi := op&0x02 != 0

	n := 3
	if quad {
		n = 4
	}

	type vertex struct {
		p   Point
		c   Color
		tex TexCoord
	}
	verts := make([]vertex, n)

	idx := 0
	baseColor := params[idx]
	idx++
	firstColor := Color{uint8(baseColor), uint8(baseColor >> 8), uint8(baseColor >> 16)}

	var clut uint32
	for i := 0; i < n; i++ {
		col := firstColor
		if gouraud && i > 0 {
			c := params[idx]
			idx++
			col = Color{uint8(c), uint8(c >> 8), uint8(c >> 16)}
		}
		vx := params[idx]
		idx++
		p := Point{X: signExtendCoord(vx & 0xFFFF), Y: signExtendCoord((vx >> 16) & 0xFFFF)}

		var tc TexCoord
		if textured {
			tw := params[idx]
			idx++
			tc = TexCoord{U: uint8(tw), V: uint8(tw >> 8)}
			if i == 0 {
				clut = (tw >> 16) & 0xFFFF
			}
		}
		verts[i] = vertex{p: p, c: col, tex: tc}
	}

	draw := func(a, b, c vertex) {
		g.fillTriangle(
			a.p, b.p, c.p,
			a.c, b.c, c.c,
			a.tex, b.tex, c.tex,
			textured, gouraud, semi, clut,
		)
	}

	draw(verts[0], verts[1], verts[2])
	if quad {
		draw(verts[1], verts[2], verts[3])
	}
}

func signExtendCoord(v uint32) int32 {
	x := int32(int16(v))
	return x
}

// fillTriangle rasterizes one triangle via the half-space edge-function
// method, interpolating color/texture coordinates linearly (barycentric)
// across the filled span.
func (g *GPU) fillTriangle(p0, p1, p2 Point, c0, c1, c2 Color, t0, t1, t2 TexCoord, textured, gouraud, semi bool, clut uint32) {
	ox, oy := g.State.DrawOffsetX, g.State.DrawOffsetY
	p0.X += ox
	p0.Y += oy
	p1.X += ox
	p1.Y += oy
	p2.X += ox
	p2.Y += oy

	minX := min3(p0.X, p1.X, p2.X)
	maxX := max3(p0.X, p1.X, p2.X)
	minY := min3(p0.Y, p1.Y, p2.Y)
	maxY := max3(p0.Y, p1.Y, p2.Y)

	if minX < g.State.Drawing.Left {
		minX = g.State.Drawing.Left
	}
	if minY < g.State.Drawing.Top {
		minY = g.State.Drawing.Top
	}
	if maxX > g.State.Drawing.Right {
		maxX = g.State.Drawing.Right
	}
	if maxY > g.State.Drawing.Bottom {
		maxY = g.State.Drawing.Bottom
	}

	area := edge(p0, p1, p2)
	if area == 0 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := Point{X: x, Y: y}
			w0 := edge(p1, p2, p)
			w1 := edge(p2, p0, p)
			w2 := edge(p0, p1, p)

			inside := (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0)
			if !inside {
				continue
			}

			l0 := float64(w0) / float64(area)
			l1 := float64(w1) / float64(area)
			l2 := float64(w2) / float64(area)

			var outColor uint16
			if textured {
				u := int(l0*float64(t0.U) + l1*float64(t1.U) + l2*float64(t2.U))
				v := int(l0*float64(t0.V) + l1*float64(t1.V) + l2*float64(t2.V))
				outColor = g.sampleTexture(u, v, clut)
				if outColor == 0 {
					continue // fully-black texel is treated as transparent
				}
			} else if gouraud {
				r := uint8(l0*float64(c0.R) + l1*float64(c1.R) + l2*float64(c2.R))
				gc := uint8(l0*float64(c0.G) + l1*float64(c1.G) + l2*float64(c2.G))
				b := uint8(l0*float64(c0.B) + l1*float64(c1.B) + l2*float64(c2.B))
				outColor = RGB888ToRGB555(r, gc, b, g.State.MaskSet)
			} else {
				outColor = RGB888ToRGB555(c0.R, c0.G, c0.B, g.State.MaskSet)
			}

			if semi && g.State.SemiEnable {
				outColor = blendPixel(g.VRAM.At(int(x), int(y)), outColor, g.State.SemiMode)
			}

			if g.State.MaskCheck && g.VRAM.At(int(x), int(y))&0x8000 != 0 {
				continue
			}
			g.VRAM.Set(int(x), int(y), outColor)
		}
	}
}

func (g *GPU) sampleTexture(u, v int, clut uint32) uint16 {
	tw := g.State.TexWindow
	u = u&^(int(tw.MaskX)*8) | int(tw.OffsetX&tw.MaskX)*8
	v = v&^(int(tw.MaskY)*8) | int(tw.OffsetY&tw.MaskY)*8
	switch g.State.TexPageColors {
	case Tex4bpp:
		idx := g.texel4(u, v)
		return g.clutLookup(clut, int(idx))
	case Tex8bpp:
		idx := g.texel8(u, v)
		return g.clutLookup(clut, int(idx))
	default:
		x := int(g.State.TexPageBaseX) + u
		y := int(g.State.TexPageBaseY) + v
		return g.VRAM.At(x, y)
	}
}

func (g *GPU) texel4(u, v int) uint8 {
	x := int(g.State.TexPageBaseX) + u/4
	y := int(g.State.TexPageBaseY) + v
	word := g.VRAM.At(x, y)
	shift := uint((u % 4) * 4)
	return uint8((word >> shift) & 0xF)
}

func (g *GPU) texel8(u, v int) uint8 {
	x := int(g.State.TexPageBaseX) + u/2
	y := int(g.State.TexPageBaseY) + v
	word := g.VRAM.At(x, y)
	shift := uint((u % 2) * 8)
	return uint8((word >> shift) & 0xFF)
}

func (g *GPU) clutLookup(clut uint32, index int) uint16 {
	cx := int(clut&0x3F) * 16
	cy := int((clut >> 6) & 0x1FF)
	return g.VRAM.At(cx+index, cy)
}

func blendPixel(bg, fg uint16, mode Semitransparency) uint16 {
	br, bgc, bb := RGB555ToRGB888(bg)
	fr, fgc, fb := RGB555ToRGB888(fg)
	mix := func(b, f uint8) uint8 {
		switch mode {
		case BlendAvg:
			return uint8((int(b) + int(f)) / 2)
		case BlendAdd:
			return clampAdd(b, f)
		case BlendSub:
			return clampSub(b, f)
		default:
			return clampAdd(b, f/4)
		}
	}
	return RGB888ToRGB555(mix(br, fr), mix(bgc, fgc), mix(bb, fb), bg&0x8000 != 0)
}

func clampAdd(a, b uint8) uint8 {
	v := int(a) + int(b)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampSub(a, b uint8) uint8 {
	v := int(a) - int(b)
	if v < 0 {
		return 0
	}
	return uint8(v)
}

func edge(a, b, c Point) int64 {
	return int64(b.X-a.X)*int64(c.Y-a.Y) - int64(b.Y-a.Y)*int64(c.X-a.X)
}

func min3(a, b, c int32) int32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c int32) int32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// drawLine rasterizes a flat or Gouraud-shaded line segment with a
// Bresenham walk; for polylines (bit 3 set) only the first segment is
// drawn.
func (g *GPU) drawLine(op uint32, params []uint32) {
	gouraud := op&0x10 != 0
	if len(params) < 3 {
		return
	}

	c0 := Color{uint8(params[0]), uint8(params[0] >> 8), uint8(params[0] >> 16)}
	var p0, p1 Point
	var c1 Color

	if gouraud {
		p0 = decodePoint(params[1])
		c1 = Color{uint8(params[2]), uint8(params[2] >> 8), uint8(params[2] >> 16)}
		if len(params) < 4 {
			return
		}
		p1 = decodePoint(params[3])
	} else {
		p0 = decodePoint(params[1])
		c1 = c0
		p1 = decodePoint(params[2])
	}

	g.bresenham(p0, p1, c0, c1)
}

func decodePoint(v uint32) Point {
	return Point{X: signExtendCoord(v & 0xFFFF), Y: signExtendCoord((v >> 16) & 0xFFFF)}
}

func (g *GPU) bresenham(p0, p1 Point, c0, c1 Color) {
	ox, oy := g.State.DrawOffsetX, g.State.DrawOffsetY
	x0, y0 := int(p0.X+ox), int(p0.Y+oy)
	x1, y1 := int(p1.X+ox), int(p1.Y+oy)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	steps := dx
	if -dy > steps {
		steps = -dy
	}
	if steps == 0 {
		steps = 1
	}
	step := 0

	for {
		if int32(x0) >= g.State.Drawing.Left && int32(x0) <= g.State.Drawing.Right &&
			int32(y0) >= g.State.Drawing.Top && int32(y0) <= g.State.Drawing.Bottom {
			t := float64(step) / float64(steps)
			r := uint8(float64(c0.R)*(1-t) + float64(c1.R)*t)
			gc := uint8(float64(c0.G)*(1-t) + float64(c1.G)*t)
			b := uint8(float64(c0.B)*(1-t) + float64(c1.B)*t)
			g.VRAM.Set(x0, y0, RGB888ToRGB555(r, gc, b, g.State.MaskSet))
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
		step++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawRect rasterizes an axis-aligned sprite rectangle (1x1, 8x8, 16x16, or
// variable sized), optionally textured from a single base texture
// coordinate with no per-pixel perspective (console sprites are
// screen-aligned, never rotated).
func (g *GPU) drawRect(op uint32, params []uint32) {
	textured := op&0x04 != 0
	size := (op >> 3) & 0x3
	semi := op&0x02 != 0

	if len(params) < 2 {
		return
	}
	c := Color{uint8(params[0]), uint8(params[0] >> 8), uint8(params[0] >> 16)}
	idx := 1
	p := decodePoint(params[idx])
	idx++

	var tex TexCoord
	var clut uint32
	if textured {
		tw := params[idx]
		idx++
		tex = TexCoord{U: uint8(tw), V: uint8(tw >> 8)}
		clut = (tw >> 16) & 0xFFFF
	}

	var w, h int32
	switch size {
	case 1:
		w, h = 1, 1
	case 2:
		w, h = 8, 8
	case 3:
		w, h = 16, 16
	default:
		if idx < len(params) {
			wh := params[idx]
			w = int32(wh & 0x3FF)
			h = int32((wh >> 16) & 0x1FF)
		}
	}

	ox, oy := g.State.DrawOffsetX, g.State.DrawOffsetY
	for row := int32(0); row < h; row++ {
		for col := int32(0); col < w; col++ {
			x := p.X + col + ox
			y := p.Y + row + oy
			if x < g.State.Drawing.Left || x > g.State.Drawing.Right ||
				y < g.State.Drawing.Top || y > g.State.Drawing.Bottom {
				continue
			}

			var outColor uint16
			if textured {
				outColor = g.sampleTexture(int(tex.U)+int(col), int(tex.V)+int(row), clut)
				if outColor == 0 {
					continue
				}
			} else {
				outColor = RGB888ToRGB555(c.R, c.G, c.B, g.State.MaskSet)
			}
			if semi && g.State.SemiEnable {
				outColor = blendPixel(g.VRAM.At(int(x), int(y)), outColor, g.State.SemiMode)
			}
			if g.State.MaskCheck && g.VRAM.At(int(x), int(y))&0x8000 != 0 {
				continue
			}
			g.VRAM.Set(int(x), int(y), outColor)
		}
	}
}
