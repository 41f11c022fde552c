package video

// Pattern names the synthetic pictures a capture device can produce.
type Pattern int

const (
	// PatternColorBars is the classic eight-bar TV test card.
	PatternColorBars Pattern = iota
	// PatternGradient is a horizontal luma ramp that scrolls each frame.
	PatternGradient
	// PatternCheckerboard alternates 16x16 blocks and inverts every 15 frames.
	PatternCheckerboard
)

// String returns the human-readable pattern name.
func (p Pattern) String() string {
	switch p {
	case PatternColorBars:
		return "color bars"
	case PatternGradient:
		return "moving gradient"
	case PatternCheckerboard:
		return "checkerboard"
	default:
		return "unknown"
	}
}

// YUV values for 75% color bars: white, yellow, cyan, green, magenta, red, blue, black.
var colorBars = [8][3]byte{
	{180, 128, 128},
	{162, 44, 142},
	{131, 156, 44},
	{112, 72, 58},
	{84, 184, 198},
	{65, 100, 212},
	{35, 212, 114},
	{16, 128, 128},
}

// Generate renders frame number n of the pattern into a new frame.
func (p Pattern) Generate(width, height uint16, n uint64) *Frame {
	frame := NewFrame(width, height)

	switch p {
	case PatternGradient:
		fillGradient(frame, n)
	case PatternCheckerboard:
		fillCheckerboard(frame, n)
	default:
		fillColorBars(frame)
	}

	return frame
}

func fillColorBars(f *Frame) {
	w, h := int(f.Width), int(f.Height)
	barWidth := max(w/len(colorBars), 1)

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			bar := min(col/barWidth, len(colorBars)-1)
			f.Y[row*f.YStride+col] = colorBars[bar][0]
		}
	}
	uvWidth, uvHeight := ChromaSize(f.Width, f.Height)
	for row := 0; row < uvHeight; row++ {
		for col := 0; col < uvWidth; col++ {
			bar := min(col*2/barWidth, len(colorBars)-1)
			f.U[row*f.UStride+col] = colorBars[bar][1]
			f.V[row*f.VStride+col] = colorBars[bar][2]
		}
	}
}

func fillGradient(f *Frame, n uint64) {
	w, h := int(f.Width), int(f.Height)
	shift := int(n % uint64(max(w, 1)))

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			f.Y[row*f.YStride+col] = byte(16 + ((col+shift)%w)*219/w)
		}
	}
	fillNeutralChroma(f)
}

func fillCheckerboard(f *Frame, n uint64) {
	const block = 16
	invert := (n/15)%2 == 1

	for row := 0; row < int(f.Height); row++ {
		for col := 0; col < int(f.Width); col++ {
			light := ((row/block)+(col/block))%2 == 0
			if invert {
				light = !light
			}
			if light {
				f.Y[row*f.YStride+col] = 235
			} else {
				f.Y[row*f.YStride+col] = 16
			}
		}
	}
	fillNeutralChroma(f)
}

func fillNeutralChroma(f *Frame) {
	for i := range f.U {
		f.U[i] = 128
	}
	for i := range f.V {
		f.V[i] = 128
	}
}
