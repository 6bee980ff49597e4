package analysis

// WordClass is a display-oriented reading of one table word.
type WordClass int

const (
	ClassCodePointer WordClass = iota
	ClassNull
	ClassTerminator
	ClassASCII
	ClassData
)

func (c WordClass) String() string {
	switch c {
	case ClassCodePointer:
		return "code ptr"
	case ClassNull:
		return "NULL"
	case ClassTerminator:
		return "-1/terminator"
	case ClassASCII:
		return "ascii"
	case ClassData:
		return "data"
	}
	return "unknown"
}

// Classify buckets a table word the way the detail views annotate it:
// null, all-ones terminator, guest code pointer, or data, with data flagged
// as ASCII when all four big-endian bytes are printable.
func Classify(v, base uint32) WordClass {
	switch {
	case v == 0:
		return ClassNull
	case v == 0xFFFFFFFF:
		return ClassTerminator
	case Plausible(v, base):
		return ClassCodePointer
	}
	if printableWord(v) {
		return ClassASCII
	}
	return ClassData
}

// ASCII returns the big-endian bytes of v as text, for ClassASCII words.
func ASCII(v uint32) string {
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func printableWord(v uint32) bool {
	for shift := 24; shift >= 0; shift -= 8 {
		b := byte(v >> uint(shift))
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}
