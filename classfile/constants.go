package classfile

const (
	Magic = 0xCAFEBABE

	// RootClass is the only class without a super class.
	RootClass = "java/lang/Object"
)

type AccessFlags uint16

const (
	AccPublic     AccessFlags = 0x0001
	AccPrivate    AccessFlags = 0x0002
	AccProtected  AccessFlags = 0x0004
	AccStatic     AccessFlags = 0x0008
	AccFinal      AccessFlags = 0x0010
	AccSuper      AccessFlags = 0x0020
	AccInterface  AccessFlags = 0x0200
	AccAbstract   AccessFlags = 0x0400
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
	AccModule     AccessFlags = 0x8000
)

func (f AccessFlags) Has(flag AccessFlags) bool { return f&flag != 0 }

func (f AccessFlags) IsPublic() bool     { return f.Has(AccPublic) }
func (f AccessFlags) IsInterface() bool  { return f.Has(AccInterface) }
func (f AccessFlags) IsAbstract() bool   { return f.Has(AccAbstract) }
func (f AccessFlags) IsAnnotation() bool { return f.Has(AccAnnotation) }
func (f AccessFlags) IsEnum() bool       { return f.Has(AccEnum) }
func (f AccessFlags) IsModule() bool     { return f.Has(AccModule) }

// Flags of requires/exports/opens entries in a Module attribute.
const (
	ModuleOpen         uint16 = 0x0020
	RequiresTransitive uint16 = 0x0020
	RequiresStatic     uint16 = 0x0040
	ModuleSynthetic    uint16 = 0x1000
	ModuleMandated     uint16 = 0x8000
)

type ConstantTag uint8

const (
	ConstantUtf8               ConstantTag = 1
	ConstantInteger            ConstantTag = 3
	ConstantFloat              ConstantTag = 4
	ConstantLong               ConstantTag = 5
	ConstantDouble             ConstantTag = 6
	ConstantClass              ConstantTag = 7
	ConstantString             ConstantTag = 8
	ConstantFieldref           ConstantTag = 9
	ConstantMethodref          ConstantTag = 10
	ConstantInterfaceMethodref ConstantTag = 11
	ConstantNameAndType        ConstantTag = 12
	ConstantMethodHandle       ConstantTag = 15
	ConstantMethodType         ConstantTag = 16
	ConstantDynamic            ConstantTag = 17
	ConstantInvokeDynamic      ConstantTag = 18
	ConstantModule             ConstantTag = 19
	ConstantPackage            ConstantTag = 20
)

var tagNames = map[ConstantTag]string{
	ConstantUtf8:               "Utf8",
	ConstantInteger:            "Integer",
	ConstantFloat:              "Float",
	ConstantLong:               "Long",
	ConstantDouble:             "Double",
	ConstantClass:              "Class",
	ConstantString:             "String",
	ConstantFieldref:           "Fieldref",
	ConstantMethodref:          "Methodref",
	ConstantInterfaceMethodref: "InterfaceMethodref",
	ConstantNameAndType:        "NameAndType",
	ConstantMethodHandle:       "MethodHandle",
	ConstantMethodType:         "MethodType",
	ConstantDynamic:            "Dynamic",
	ConstantInvokeDynamic:      "InvokeDynamic",
	ConstantModule:             "Module",
	ConstantPackage:            "Package",
}

func (t ConstantTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Wide reports whether the entry occupies two constant pool slots.
func (t ConstantTag) Wide() bool {
	return t == ConstantLong || t == ConstantDouble
}

// DecodeFlags selects which sections Decode materializes. The constant pool
// and the class header are always decoded.
type DecodeFlags uint8

const (
	ConstantPoolOnly DecodeFlags = 0
	DecodeFields     DecodeFlags = 1 << iota
	DecodeMethods
	DecodeAttributes

	DecodeAll = DecodeFields | DecodeMethods | DecodeAttributes
)

func (f DecodeFlags) Has(flag DecodeFlags) bool { return f&flag != 0 }
