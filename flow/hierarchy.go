package flow

const (
	Object           = "java/lang/Object"
	Throwable        = "java/lang/Throwable"
	Exception        = "java/lang/Exception"
	RuntimeException = "java/lang/RuntimeException"
	Error            = "java/lang/Error"
)

// TypeHierarchy answers superclass questions about '/'-separated type
// names.
type TypeHierarchy interface {
	// SuperClass returns the direct superclass of name, false when name is
	// unknown.
	SuperClass(name string) (string, bool)
}

// HierarchyFunc adapts a function to TypeHierarchy.
type HierarchyFunc func(name string) (string, bool)

func (f HierarchyFunc) SuperClass(name string) (string, bool) { return f(name) }

// MapHierarchy maps type names to their superclass.
type MapHierarchy map[string]string

func (m MapHierarchy) SuperClass(name string) (string, bool) {
	s, ok := m[name]
	return s, ok
}

// BuiltinHierarchy knows the throwables of java.lang, java.io and a few
// other packages every program sees.
var BuiltinHierarchy = MapHierarchy{
	Throwable:        Object,
	Exception:        Throwable,
	Error:            Throwable,
	RuntimeException: Exception,

	"java/lang/ReflectiveOperationException":   Exception,
	"java/lang/ClassNotFoundException":         "java/lang/ReflectiveOperationException",
	"java/lang/NoSuchMethodException":          "java/lang/ReflectiveOperationException",
	"java/lang/NoSuchFieldException":           "java/lang/ReflectiveOperationException",
	"java/lang/InstantiationException":         "java/lang/ReflectiveOperationException",
	"java/lang/IllegalAccessException":         "java/lang/ReflectiveOperationException",
	"java/lang/CloneNotSupportedException":     Exception,
	"java/lang/InterruptedException":           Exception,
	"java/lang/NullPointerException":           RuntimeException,
	"java/lang/IllegalArgumentException":       RuntimeException,
	"java/lang/NumberFormatException":          "java/lang/IllegalArgumentException",
	"java/lang/IllegalStateException":          RuntimeException,
	"java/lang/IndexOutOfBoundsException":      RuntimeException,
	"java/lang/ArrayIndexOutOfBoundsException": "java/lang/IndexOutOfBoundsException",
	"java/lang/ClassCastException":             RuntimeException,
	"java/lang/ArithmeticException":            RuntimeException,
	"java/lang/UnsupportedOperationException":  RuntimeException,
	"java/lang/SecurityException":              RuntimeException,
	"java/lang/LinkageError":                   Error,
	"java/lang/NoClassDefFoundError":           "java/lang/LinkageError",
	"java/lang/VirtualMachineError":            Error,
	"java/lang/OutOfMemoryError":               "java/lang/VirtualMachineError",
	"java/lang/StackOverflowError":             "java/lang/VirtualMachineError",
	"java/lang/AssertionError":                 Error,

	"java/io/IOException":                       Exception,
	"java/io/FileNotFoundException":             "java/io/IOException",
	"java/io/EOFException":                      "java/io/IOException",
	"java/io/UncheckedIOException":              RuntimeException,
	"java/net/MalformedURLException":            "java/io/IOException",
	"java/nio/file/NoSuchFileException":         "java/nio/file/FileSystemException",
	"java/nio/file/FileSystemException":         "java/io/IOException",
	"java/util/NoSuchElementException":          RuntimeException,
	"java/util/ConcurrentModificationException": RuntimeException,
	"java/util/concurrent/ExecutionException":   Exception,
	"java/util/concurrent/TimeoutException":     Exception,
	"java/sql/SQLException":                     Exception,
}

// Chain asks each hierarchy in turn.
func Chain(hierarchies ...TypeHierarchy) TypeHierarchy {
	return HierarchyFunc(func(name string) (string, bool) {
		for _, h := range hierarchies {
			if s, ok := h.SuperClass(name); ok {
				return s, true
			}
		}
		return "", false
	})
}

// maxDepth bounds superclass walks over broken hierarchies.
const maxDepth = 64

// IsSubtype reports whether sub is sup or one of its subclasses.
func IsSubtype(h TypeHierarchy, sub, sup string) bool {
	name := sub
	for i := 0; i < maxDepth; i++ {
		if name == sup {
			return true
		}
		next, ok := h.SuperClass(name)
		if !ok || next == "" {
			return false
		}
		name = next
	}
	return false
}

// IsUnchecked reports whether name is a RuntimeException or an Error.
func IsUnchecked(h TypeHierarchy, name string) bool {
	return IsSubtype(h, name, RuntimeException) || IsSubtype(h, name, Error)
}

type relation int

const (
	notRelated relation = iota
	// raised is the caught type or one of its subclasses
	equalOrMoreSpecific
	// raised is a superclass of the caught type
	moreGeneric
)

func compareTypes(h TypeHierarchy, raised, caught string) relation {
	switch {
	case IsSubtype(h, raised, caught):
		return equalOrMoreSpecific
	case IsSubtype(h, caught, raised):
		return moreGeneric
	}
	return notRelated
}
