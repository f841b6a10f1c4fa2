package classfile

import (
	"fmt"
	"math"
)

type Constant interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

// ConstantRef covers every entry made of one or two pool indices: Class,
// String, MethodType, Module and Package use only Index, the member refs,
// NameAndType and the dynamic constants use both.
type ConstantRef struct {
	Kind   ConstantTag
	Index  uint16
	Index2 uint16
}

func (c *ConstantRef) Tag() ConstantTag { return c.Kind }

type ConstantMethodHandleInfo struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

// ConstantPool is indexed like the class file: slot 0 and the slot after a
// Long or Double are nil.
type ConstantPool []Constant

func (cp ConstantPool) Get(index uint16) Constant {
	if int(index) >= len(cp) {
		return nil
	}
	return cp[index]
}

func (cp ConstantPool) Utf8(index uint16) string {
	if c, ok := cp.Get(index).(*ConstantUtf8Info); ok {
		return c.Value
	}
	return ""
}

func (cp ConstantPool) ref(index uint16, kind ConstantTag) *ConstantRef {
	if c, ok := cp.Get(index).(*ConstantRef); ok && c.Kind == kind {
		return c
	}
	return nil
}

func (cp ConstantPool) ClassName(index uint16) string {
	if c := cp.ref(index, ConstantClass); c != nil {
		return cp.Utf8(c.Index)
	}
	return ""
}

func (cp ConstantPool) ModuleName(index uint16) string {
	if c := cp.ref(index, ConstantModule); c != nil {
		return cp.Utf8(c.Index)
	}
	return ""
}

func (cp ConstantPool) PackageName(index uint16) string {
	if c := cp.ref(index, ConstantPackage); c != nil {
		return cp.Utf8(c.Index)
	}
	return ""
}

func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string) {
	if c := cp.ref(index, ConstantNameAndType); c != nil {
		return cp.Utf8(c.Index), cp.Utf8(c.Index2)
	}
	return "", ""
}

func (cp ConstantPool) String(index uint16) string {
	if c := cp.ref(index, ConstantString); c != nil {
		return cp.Utf8(c.Index)
	}
	return ""
}

func (cp ConstantPool) classNames(indices []uint16) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = cp.ClassName(idx)
	}
	return names
}

func decodeConstantPool(d *decoder) ConstantPool {
	count := int(d.u2())
	if d.err != nil {
		return nil
	}
	cp := make(ConstantPool, count)
	for i := 1; i < count; i++ {
		c := decodeConstant(d)
		if d.err != nil {
			return nil
		}
		cp[i] = c
		if c.Tag().Wide() {
			i++
		}
	}
	return cp
}

func decodeConstant(d *decoder) Constant {
	start := d.pos
	tag := ConstantTag(d.u1())
	switch tag {
	case ConstantUtf8:
		n := int(d.u2())
		return &ConstantUtf8Info{Value: decodeModifiedUTF8(d.bytes(n))}
	case ConstantInteger:
		return &ConstantIntegerInfo{Value: int32(d.u4())}
	case ConstantFloat:
		return &ConstantFloatInfo{Value: math.Float32frombits(d.u4())}
	case ConstantLong:
		high, low := d.u4(), d.u4()
		return &ConstantLongInfo{Value: int64(high)<<32 | int64(low)}
	case ConstantDouble:
		high, low := d.u4(), d.u4()
		return &ConstantDoubleInfo{Value: math.Float64frombits(uint64(high)<<32 | uint64(low))}
	case ConstantClass, ConstantString, ConstantMethodType, ConstantModule, ConstantPackage:
		return &ConstantRef{Kind: tag, Index: d.u2()}
	case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref,
		ConstantNameAndType, ConstantDynamic, ConstantInvokeDynamic:
		a, b := d.u2(), d.u2()
		return &ConstantRef{Kind: tag, Index: a, Index2: b}
	case ConstantMethodHandle:
		kind := d.u1()
		return &ConstantMethodHandleInfo{ReferenceKind: kind, ReferenceIndex: d.u2()}
	}
	if d.err == nil {
		d.pos = start
		d.fail(ReasonInvalidTag, fmt.Sprintf("tag %d", tag))
	}
	return nil
}
