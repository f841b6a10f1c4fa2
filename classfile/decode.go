package classfile

import (
	"fmt"
	"io"
	"os"
)

func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	return Decode(data, DecodeAll)
}

func Parse(rd io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	return Decode(data, DecodeAll)
}

// Decode decodes a class file. Sections not selected by flags are skipped
// using their declared lengths, and the walk must end exactly at len(data).
// Every failure is a *FormatError.
func Decode(data []byte, flags DecodeFlags) (cf *ClassFile, err error) {
	d := newDecoder(data, 0)
	defer func() {
		if r := recover(); r != nil {
			cf = nil
			err = &FormatError{Reason: ReasonMalformedAttribute, Offset: d.base + d.pos, Err: fmt.Errorf("%v", r)}
		}
	}()

	if magic := d.u4(); d.err == nil && magic != Magic {
		d.pos = 0
		d.fail(ReasonInvalidMagic, fmt.Sprintf("0x%X", magic))
	}

	cf = &ClassFile{Decoded: flags}
	cf.MinorVersion = d.u2()
	cf.MajorVersion = d.u2()
	cf.ConstantPool = decodeConstantPool(d)

	cf.AccessFlags = AccessFlags(d.u2())
	cf.ThisClass = d.u2()
	superAt := d.pos
	cf.SuperClass = d.u2()
	if d.err == nil && cf.SuperClass == 0 && !cf.AccessFlags.IsModule() && cf.ClassName() != RootClass {
		d.pos = superAt
		d.fail(ReasonMissingSuperClass, cf.ClassName())
	}
	cf.Interfaces = u2List(d)

	cf.Fields = decodeMembers(d, cf.ConstantPool, flags.Has(DecodeFields))
	cf.Methods = decodeMembers(d, cf.ConstantPool, flags.Has(DecodeMethods))

	if flags.Has(DecodeAttributes) {
		cf.Attributes = decodeAttributes(d, cf.ConstantPool)
	} else {
		skipAttributes(d)
	}

	if d.err == nil && d.remaining() != 0 {
		d.fail(ReasonTrailingBytes, fmt.Sprintf("%d bytes", d.remaining()))
	}
	if d.err != nil {
		return nil, d.err
	}
	return cf, nil
}

func decodeMembers(d *decoder, cp ConstantPool, materialize bool) []Member {
	count := int(d.u2())
	var members []Member
	if materialize && d.err == nil {
		members = make([]Member, 0, count)
	}
	for i := 0; i < count && d.err == nil; i++ {
		if !materialize {
			d.skip(6)
			skipAttributes(d)
			continue
		}
		m := Member{
			AccessFlags: AccessFlags(d.u2()),
			Name:        cp.Utf8(d.u2()),
			Descriptor:  cp.Utf8(d.u2()),
		}
		m.Attributes = decodeAttributes(d, cp)
		members = append(members, m)
	}
	return members
}
