package classfile

import "strings"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute

	// Decoded records which sections were materialized.
	Decoded DecodeFlags
}

// Member is a field_info or method_info entry.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

func (m *Member) Exceptions() []string {
	if a := findAttribute[*ExceptionsAttribute](m.Attributes); a != nil {
		return a.Exceptions
	}
	return nil
}

func (m *Member) Code() *CodeAttribute {
	return findAttribute[*CodeAttribute](m.Attributes)
}

func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.ClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	return cf.ConstantPool.classNames(cf.Interfaces)
}

// PackageName is the slash-separated package of the class, empty for the
// unnamed package.
func (cf *ClassFile) PackageName() string {
	name := cf.ClassName()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return ""
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsAnnotation()
}

func (cf *ClassFile) IsModule() bool {
	return cf.AccessFlags.IsModule()
}

func (cf *ClassFile) Method(name, descriptor string) *Member {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.Name == name && (descriptor == "" || m.Descriptor == descriptor) {
			return m
		}
	}
	return nil
}

func (cf *ClassFile) Field(name string) *Member {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) Attribute(name string) Attribute {
	for _, a := range cf.Attributes {
		if a.AttributeName() == name {
			return a
		}
	}
	return nil
}

func (cf *ClassFile) SourceFileName() string {
	if a := findAttribute[*SourceFileAttribute](cf.Attributes); a != nil {
		return a.SourceFile
	}
	return ""
}

func (cf *ClassFile) ModuleAttribute() *ModuleAttribute {
	return findAttribute[*ModuleAttribute](cf.Attributes)
}

func (cf *ClassFile) ModulePackages() []string {
	if a := findAttribute[*ModulePackagesAttribute](cf.Attributes); a != nil {
		return a.Packages
	}
	return nil
}

func (cf *ClassFile) InnerClasses() []InnerClass {
	if a := findAttribute[*InnerClassesAttribute](cf.Attributes); a != nil {
		return a.Classes
	}
	return nil
}

func (cf *ClassFile) PermittedSubclassNames() []string {
	if a := findAttribute[*PermittedSubclassesAttribute](cf.Attributes); a != nil {
		return a.Classes
	}
	return nil
}

func (cf *ClassFile) NestMemberNames() []string {
	if a := findAttribute[*NestMembersAttribute](cf.Attributes); a != nil {
		return a.Members
	}
	return nil
}

func findAttribute[T Attribute](attrs []Attribute) T {
	var zero T
	for _, a := range attrs {
		if t, ok := a.(T); ok {
			return t
		}
	}
	return zero
}
