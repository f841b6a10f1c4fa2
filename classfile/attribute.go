package classfile

import "fmt"

// Attribute is a decoded class, member or code attribute.
type Attribute interface {
	AttributeName() string
}

type SourceFileAttribute struct {
	SourceFile string
}

type SignatureAttribute struct {
	Signature string
}

type InnerClassesAttribute struct {
	Classes []InnerClass
}

type InnerClass struct {
	InnerClass  string
	OuterClass  string
	InnerName   string
	AccessFlags AccessFlags
}

type EnclosingMethodAttribute struct {
	Class      string
	Method     string
	Descriptor string
}

type ExceptionsAttribute struct {
	Exceptions []string
}

type ConstantValueAttribute struct {
	ValueIndex uint16
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	CodeLength     uint32
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// ExceptionHandler is one exception table row. CatchType is empty for a
// finally handler.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType string
}

type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

type AnnotationsAttribute struct {
	Visible     bool
	Annotations []Annotation
}

type Annotation struct {
	Type     string
	Elements []ElementValuePair
}

type ElementValuePair struct {
	Name  string
	Value ElementValue
}

// ElementValue holds one annotation element. Which fields are set depends
// on Tag: constants use ConstIndex, 'e' uses EnumType and EnumConst, 'c'
// uses Class, '@' uses Annotation and '[' uses Values.
type ElementValue struct {
	Tag        byte
	ConstIndex uint16
	EnumType   string
	EnumConst  string
	Class      string
	Annotation *Annotation
	Values     []ElementValue
}

type ModuleAttribute struct {
	Name     string
	Flags    uint16
	Version  string
	Requires []ModuleRequires
	Exports  []ModulePackage
	Opens    []ModulePackage
	Uses     []string
	Provides []ModuleProvides
}

func (m *ModuleAttribute) IsOpen() bool { return m.Flags&ModuleOpen != 0 }

type ModuleRequires struct {
	Module  string
	Flags   uint16
	Version string
}

func (r ModuleRequires) IsTransitive() bool { return r.Flags&RequiresTransitive != 0 }
func (r ModuleRequires) IsStatic() bool     { return r.Flags&RequiresStatic != 0 }

// ModulePackage is an exports or opens entry. An empty To means the package
// is exported or opened to every module.
type ModulePackage struct {
	Package string
	Flags   uint16
	To      []string
}

type ModuleProvides struct {
	Service string
	With    []string
}

type ModulePackagesAttribute struct {
	Packages []string
}

type ModuleMainClassAttribute struct {
	MainClass string
}

type RecordAttribute struct {
	Components []RecordComponent
}

type RecordComponent struct {
	Name       string
	Descriptor string
	Attributes []Attribute
}

type PermittedSubclassesAttribute struct {
	Classes []string
}

type NestHostAttribute struct {
	Host string
}

type NestMembersAttribute struct {
	Members []string
}

type DeprecatedAttribute struct{}

type SyntheticAttribute struct{}

// OpaqueAttribute is an attribute this package does not interpret.
type OpaqueAttribute struct {
	Name   string
	Length uint32
	Data   []byte
}

func (*SourceFileAttribute) AttributeName() string          { return "SourceFile" }
func (*SignatureAttribute) AttributeName() string           { return "Signature" }
func (*InnerClassesAttribute) AttributeName() string        { return "InnerClasses" }
func (*EnclosingMethodAttribute) AttributeName() string     { return "EnclosingMethod" }
func (*ExceptionsAttribute) AttributeName() string          { return "Exceptions" }
func (*ConstantValueAttribute) AttributeName() string       { return "ConstantValue" }
func (*CodeAttribute) AttributeName() string                { return "Code" }
func (*BootstrapMethodsAttribute) AttributeName() string    { return "BootstrapMethods" }
func (*ModuleAttribute) AttributeName() string              { return "Module" }
func (*ModulePackagesAttribute) AttributeName() string      { return "ModulePackages" }
func (*ModuleMainClassAttribute) AttributeName() string     { return "ModuleMainClass" }
func (*RecordAttribute) AttributeName() string              { return "Record" }
func (*PermittedSubclassesAttribute) AttributeName() string { return "PermittedSubclasses" }
func (*NestHostAttribute) AttributeName() string            { return "NestHost" }
func (*NestMembersAttribute) AttributeName() string         { return "NestMembers" }
func (*DeprecatedAttribute) AttributeName() string          { return "Deprecated" }
func (*SyntheticAttribute) AttributeName() string           { return "Synthetic" }
func (a *OpaqueAttribute) AttributeName() string            { return a.Name }

func (a *AnnotationsAttribute) AttributeName() string {
	if a.Visible {
		return "RuntimeVisibleAnnotations"
	}
	return "RuntimeInvisibleAnnotations"
}

func decodeAttributes(d *decoder, cp ConstantPool) []Attribute {
	count := int(d.u2())
	if d.err != nil {
		return nil
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < count; i++ {
		attr := decodeAttribute(d, cp)
		if d.err != nil {
			return nil
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// skipAttributes walks an attribute table by declared lengths only.
func skipAttributes(d *decoder) {
	count := int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		d.skip(2)
		d.skip(int(d.u4()))
	}
}

func decodeAttribute(d *decoder, cp ConstantPool) Attribute {
	name := cp.Utf8(d.u2())
	length := d.u4()
	body := d.sub(int(length))
	if d.err != nil {
		return nil
	}

	var attr Attribute
	switch name {
	case "SourceFile":
		attr = &SourceFileAttribute{SourceFile: cp.Utf8(body.u2())}
	case "Signature":
		attr = &SignatureAttribute{Signature: cp.Utf8(body.u2())}
	case "InnerClasses":
		attr = decodeInnerClasses(body, cp)
	case "EnclosingMethod":
		class := cp.ClassName(body.u2())
		method, desc := cp.NameAndType(body.u2())
		attr = &EnclosingMethodAttribute{Class: class, Method: method, Descriptor: desc}
	case "Exceptions":
		attr = &ExceptionsAttribute{Exceptions: cp.classNames(u2List(body))}
	case "ConstantValue":
		attr = &ConstantValueAttribute{ValueIndex: body.u2()}
	case "Code":
		attr = decodeCode(body, cp)
	case "BootstrapMethods":
		attr = decodeBootstrapMethods(body)
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		attr = decodeAnnotations(body, cp, name == "RuntimeVisibleAnnotations")
	case "Module":
		attr = decodeModule(body, cp)
	case "ModulePackages":
		pkgs := u2List(body)
		names := make([]string, len(pkgs))
		for i, idx := range pkgs {
			names[i] = cp.PackageName(idx)
		}
		attr = &ModulePackagesAttribute{Packages: names}
	case "ModuleMainClass":
		attr = &ModuleMainClassAttribute{MainClass: cp.ClassName(body.u2())}
	case "Record":
		attr = decodeRecord(body, cp)
	case "PermittedSubclasses":
		attr = &PermittedSubclassesAttribute{Classes: cp.classNames(u2List(body))}
	case "NestHost":
		attr = &NestHostAttribute{Host: cp.ClassName(body.u2())}
	case "NestMembers":
		attr = &NestMembersAttribute{Members: cp.classNames(u2List(body))}
	case "Deprecated":
		attr = &DeprecatedAttribute{}
	case "Synthetic":
		attr = &SyntheticAttribute{}
	default:
		return &OpaqueAttribute{Name: name, Length: length, Data: body.bytes(body.remaining())}
	}

	switch {
	case body.err != nil:
		d.err = &FormatError{
			Reason: ReasonMalformedAttribute,
			Offset: body.err.Offset,
			Detail: name,
			Err:    body.err,
		}
		return nil
	case body.remaining() != 0:
		body.fail(ReasonMalformedAttribute, fmt.Sprintf("%s: %d unread bytes", name, body.remaining()))
		d.err = body.err
		return nil
	}
	return attr
}

func u2List(d *decoder) []uint16 {
	n := int(d.u2())
	if d.err != nil {
		return nil
	}
	list := make([]uint16, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		list = append(list, d.u2())
	}
	return list
}

func decodeInnerClasses(d *decoder, cp ConstantPool) *InnerClassesAttribute {
	n := int(d.u2())
	a := &InnerClassesAttribute{}
	for i := 0; i < n && d.err == nil; i++ {
		a.Classes = append(a.Classes, InnerClass{
			InnerClass:  cp.ClassName(d.u2()),
			OuterClass:  cp.ClassName(d.u2()),
			InnerName:   cp.Utf8(d.u2()),
			AccessFlags: AccessFlags(d.u2()),
		})
	}
	return a
}

func decodeCode(d *decoder, cp ConstantPool) *CodeAttribute {
	c := &CodeAttribute{MaxStack: d.u2(), MaxLocals: d.u2()}
	c.CodeLength = d.u4()
	d.skip(int(c.CodeLength))
	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		h := ExceptionHandler{StartPC: d.u2(), EndPC: d.u2(), HandlerPC: d.u2()}
		if idx := d.u2(); idx != 0 {
			h.CatchType = cp.ClassName(idx)
		}
		c.ExceptionTable = append(c.ExceptionTable, h)
	}
	c.Attributes = decodeAttributes(d, cp)
	return c
}

func decodeBootstrapMethods(d *decoder) *BootstrapMethodsAttribute {
	n := int(d.u2())
	a := &BootstrapMethodsAttribute{}
	for i := 0; i < n && d.err == nil; i++ {
		ref := d.u2()
		a.Methods = append(a.Methods, BootstrapMethod{MethodRef: ref, Arguments: u2List(d)})
	}
	return a
}

func decodeAnnotations(d *decoder, cp ConstantPool, visible bool) *AnnotationsAttribute {
	n := int(d.u2())
	a := &AnnotationsAttribute{Visible: visible}
	for i := 0; i < n && d.err == nil; i++ {
		a.Annotations = append(a.Annotations, decodeAnnotation(d, cp))
	}
	return a
}

func decodeAnnotation(d *decoder, cp ConstantPool) Annotation {
	ann := Annotation{Type: cp.Utf8(d.u2())}
	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		name := cp.Utf8(d.u2())
		ann.Elements = append(ann.Elements, ElementValuePair{Name: name, Value: decodeElementValue(d, cp)})
	}
	return ann
}

func decodeElementValue(d *decoder, cp ConstantPool) ElementValue {
	ev := ElementValue{Tag: d.u1()}
	switch ev.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		ev.ConstIndex = d.u2()
	case 'e':
		ev.EnumType = cp.Utf8(d.u2())
		ev.EnumConst = cp.Utf8(d.u2())
	case 'c':
		ev.Class = cp.Utf8(d.u2())
	case '@':
		ann := decodeAnnotation(d, cp)
		ev.Annotation = &ann
	case '[':
		n := int(d.u2())
		for i := 0; i < n && d.err == nil; i++ {
			ev.Values = append(ev.Values, decodeElementValue(d, cp))
		}
	default:
		d.fail(ReasonMalformedAttribute, fmt.Sprintf("element value tag %q", ev.Tag))
	}
	return ev
}

func decodeModule(d *decoder, cp ConstantPool) *ModuleAttribute {
	m := &ModuleAttribute{
		Name:    cp.ModuleName(d.u2()),
		Flags:   d.u2(),
		Version: cp.Utf8(d.u2()),
	}

	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		m.Requires = append(m.Requires, ModuleRequires{
			Module:  cp.ModuleName(d.u2()),
			Flags:   d.u2(),
			Version: cp.Utf8(d.u2()),
		})
	}
	m.Exports = decodeModulePackages(d, cp)
	m.Opens = decodeModulePackages(d, cp)

	for _, idx := range u2List(d) {
		m.Uses = append(m.Uses, cp.ClassName(idx))
	}

	n = int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		service := cp.ClassName(d.u2())
		m.Provides = append(m.Provides, ModuleProvides{Service: service, With: cp.classNames(u2List(d))})
	}
	return m
}

func decodeModulePackages(d *decoder, cp ConstantPool) []ModulePackage {
	n := int(d.u2())
	var pkgs []ModulePackage
	for i := 0; i < n && d.err == nil; i++ {
		p := ModulePackage{Package: cp.PackageName(d.u2()), Flags: d.u2()}
		for _, idx := range u2List(d) {
			p.To = append(p.To, cp.ModuleName(idx))
		}
		pkgs = append(pkgs, p)
	}
	return pkgs
}

func decodeRecord(d *decoder, cp ConstantPool) *RecordAttribute {
	n := int(d.u2())
	a := &RecordAttribute{}
	for i := 0; i < n && d.err == nil; i++ {
		c := RecordComponent{Name: cp.Utf8(d.u2()), Descriptor: cp.Utf8(d.u2())}
		c.Attributes = decodeAttributes(d, cp)
		a.Components = append(a.Components, c)
	}
	return a
}
