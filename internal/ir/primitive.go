package ir

// PrimitiveKind identifies a built-in scalar type. Target-specific
// spellings live in the writer; the core only cares about identity.
type PrimitiveKind uint8

const (
	PrimInvalid PrimitiveKind = iota
	PrimVoid
	PrimBool
	PrimChar
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimUsize
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimIsize
	PrimF32
	PrimF64
	PrimCChar
	PrimCInt
	PrimCUInt
	PrimVaList
)

var primitiveSpellings = map[string]PrimitiveKind{
	"void":   PrimVoid,
	"bool":   PrimBool,
	"char":   PrimChar,
	"u8":     PrimU8,
	"u16":    PrimU16,
	"u32":    PrimU32,
	"u64":    PrimU64,
	"usize":  PrimUsize,
	"i8":     PrimI8,
	"i16":    PrimI16,
	"i32":    PrimI32,
	"i64":    PrimI64,
	"isize":  PrimIsize,
	"f32":    PrimF32,
	"f64":    PrimF64,
	"c_char": PrimCChar,
	"c_int":  PrimCInt,
	"c_uint": PrimCUInt,
}

var primitiveNames = func() map[PrimitiveKind]string {
	m := make(map[PrimitiveKind]string, len(primitiveSpellings))
	for name, kind := range primitiveSpellings {
		m[kind] = name
	}
	return m
}()

// PrimitiveFromName resolves a source spelling to a primitive kind.
func PrimitiveFromName(name string) (PrimitiveKind, bool) {
	k, ok := primitiveSpellings[name]
	return k, ok
}

func (k PrimitiveKind) String() string {
	if name, ok := primitiveNames[k]; ok {
		return name
	}
	if k == PrimVaList {
		return "va_list"
	}
	return "invalid"
}

// IsInteger reports whether the primitive can size an enum discriminant.
func (k PrimitiveKind) IsInteger() bool {
	switch k {
	case PrimU8, PrimU16, PrimU32, PrimU64, PrimUsize,
		PrimI8, PrimI16, PrimI32, PrimI64, PrimIsize:
		return true
	}
	return false
}
