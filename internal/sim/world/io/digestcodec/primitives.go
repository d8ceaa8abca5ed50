package digestcodec

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
