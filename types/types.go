package types

import (
	"fmt"
	"strings"
)

// Type is the interface implemented by all gold data types.
type Type interface {
	// Size returns the storage size of a value of this type in bytes.
	Size() int

	// Repr returns the string representation of the type as it would be
	// written in gold source.
	Repr() string

	// equals returns whether this type is exactly equal to other.  It should
	// only be called through the package-level Equal function.
	equals(other Type) bool
}

// Storage is a storage class attached to a reference, slice, or array type,
// governing where the referenced memory lives in the program image.
type Storage int

const (
	// Auto storage is transient and scoped to the declaring construct: it has
	// no image footprint beyond the enclosing scope's working storage.
	Auto Storage = iota

	// Mut storage is reserved and sized at compile time but contributes zero
	// bytes to the emitted image: it is implicitly zero at load time.
	Mut

	// Stash storage occupies space in the initialized-data section: its
	// declared initializer is emitted as literal bytes, and mutations persist
	// across calls within a single program run.
	Stash
)

// String returns the storage class keyword, or "" for auto.
func (s Storage) String() string {
	switch s {
	case Mut:
		return "mut"
	case Stash:
		return "stash"
	default:
		return ""
	}
}

// prefix returns the storage class keyword with a trailing space, or "".
func (s Storage) prefix() string {
	if s == Auto {
		return ""
	}

	return s.String() + " "
}

// -----------------------------------------------------------------------------

// VoidType is the unit type of functions that return nothing.
type VoidType struct{}

func (vt VoidType) Size() int    { return 0 }
func (vt VoidType) Repr() string { return "void" }

func (vt VoidType) equals(other Type) bool {
	_, ok := other.(VoidType)
	return ok
}

// -----------------------------------------------------------------------------

// PrimType is a primitive machine type: a sized integer or bool.
type PrimType struct {
	// The name of the type as written in source.
	Name string

	// The width of the type in bytes.
	Width int

	// Whether the type is a signed integer.
	Signed bool
}

func (pt PrimType) Size() int    { return pt.Width }
func (pt PrimType) Repr() string { return pt.Name }

func (pt PrimType) equals(other Type) bool {
	opt, ok := other.(PrimType)
	return ok && pt.Name == opt.Name
}

// The primitive types of the gold language.
var (
	U8   = PrimType{Name: "u8", Width: 1}
	U16  = PrimType{Name: "u16", Width: 2}
	U24  = PrimType{Name: "u24", Width: 3}
	U32  = PrimType{Name: "u32", Width: 4}
	I8   = PrimType{Name: "i8", Width: 1, Signed: true}
	I16  = PrimType{Name: "i16", Width: 2, Signed: true}
	I24  = PrimType{Name: "i24", Width: 3, Signed: true}
	I32  = PrimType{Name: "i32", Width: 4, Signed: true}
	Bool = PrimType{Name: "bool", Width: 1}
)

// Primitives maps primitive type names to their types.
var Primitives = map[string]PrimType{
	"u8":   U8,
	"u16":  U16,
	"u24":  U24,
	"u32":  U32,
	"i8":   I8,
	"i16":  I16,
	"i24":  I24,
	"i32":  I32,
	"bool": Bool,
}

// Bounds returns the minimum and maximum value representable by an integer
// primitive.
func (pt PrimType) Bounds() (int64, int64) {
	if pt.Name == "bool" {
		return 0, 1
	}

	bits := uint(pt.Width * 8)
	if pt.Signed {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}

	return 0, 1<<bits - 1
}

// Representable returns whether the value v fits in the primitive type.
func (pt PrimType) Representable(v int64) bool {
	lo, hi := pt.Bounds()
	return lo <= v && v <= hi
}

// -----------------------------------------------------------------------------

// RefType is a reference to a value of the element type: `&mut u8`.
type RefType struct {
	Elem    Type
	Storage Storage
}

// References are 16-bit addresses on the 6502.
func (rt RefType) Size() int { return 2 }

func (rt RefType) Repr() string {
	return "&" + rt.Storage.prefix() + rt.Elem.Repr()
}

func (rt RefType) equals(other Type) bool {
	ort, ok := other.(RefType)
	return ok && rt.Storage == ort.Storage && Equal(rt.Elem, ort.Elem)
}

// SliceType is an unsized view of a run of elements: `[u8]`.
type SliceType struct {
	Elem    Type
	Storage Storage
}

// A slice is represented as a base address and a length byte.
func (st SliceType) Size() int { return 3 }

func (st SliceType) Repr() string {
	return "[" + st.Storage.prefix() + st.Elem.Repr() + "]"
}

func (st SliceType) equals(other Type) bool {
	ost, ok := other.(SliceType)
	return ok && st.Storage == ost.Storage && Equal(st.Elem, ost.Elem)
}

// ArrayType is a fixed run of elements over a declared index range:
// `[u8: 0 to 7]`.  The range is inclusive on both ends.
type ArrayType struct {
	Elem    Type
	Storage Storage
	Lo, Hi  int
}

// Len returns the number of elements in the array.
func (at ArrayType) Len() int { return at.Hi - at.Lo + 1 }

func (at ArrayType) Size() int { return at.Len() * at.Elem.Size() }

func (at ArrayType) Repr() string {
	return fmt.Sprintf("[%s%s: %d to %d]", at.Storage.prefix(), at.Elem.Repr(), at.Lo, at.Hi)
}

func (at ArrayType) equals(other Type) bool {
	oat, ok := other.(ArrayType)
	return ok && at.Storage == oat.Storage && at.Lo == oat.Lo && at.Hi == oat.Hi &&
		Equal(at.Elem, oat.Elem)
}

// -----------------------------------------------------------------------------

// FuncType is the type of a function: its parameter types and return type.
// Functions are not first-class values in gold; this type exists so that
// cross-unit calls can be checked against cached unit symbol tables.
type FuncType struct {
	Params []Type
	Return Type

	// IsISR marks interrupt service routines, which accept no parameters and
	// are never invoked as ordinary calls.
	IsISR bool
}

// A function has no value size: it is not storable.
func (ft FuncType) Size() int { return 0 }

func (ft FuncType) Repr() string {
	if ft.IsISR {
		return "isr"
	}

	params := make([]string, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = p.Repr()
	}

	s := "fun(" + strings.Join(params, ", ") + ")"
	if !Equal(ft.Return, VoidType{}) {
		s += " -> " + ft.Return.Repr()
	}

	return s
}

func (ft FuncType) equals(other Type) bool {
	oft, ok := other.(FuncType)
	if !ok || ft.IsISR != oft.IsISR || len(ft.Params) != len(oft.Params) {
		return false
	}

	for i, p := range ft.Params {
		if !Equal(p, oft.Params[i]) {
			return false
		}
	}

	return Equal(ft.Return, oft.Return)
}

// -----------------------------------------------------------------------------

// Equal returns whether two types are exactly equal, including storage
// classes and array ranges.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.equals(b)
}

// IsInteger returns whether t is an integer primitive.
func IsInteger(t Type) bool {
	pt, ok := t.(PrimType)
	return ok && pt.Name != "bool"
}

// IsBool returns whether t is the bool primitive.
func IsBool(t Type) bool {
	pt, ok := t.(PrimType)
	return ok && pt.Name == "bool"
}

// IsVoid returns whether t is void (or nil, which stands for void in
// unannotated positions).
func IsVoid(t Type) bool {
	if t == nil {
		return true
	}

	_, ok := t.(VoidType)
	return ok
}

// Indexable returns the element type of t if t may be subscripted, ie. it is
// an array or a slice.
func Indexable(t Type) (Type, bool) {
	switch tt := t.(type) {
	case ArrayType:
		return tt.Elem, true
	case SliceType:
		return tt.Elem, true
	default:
		return nil, false
	}
}
