// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"math"
)

type Requires struct {
	Module     string
	Transitive bool
	Static     bool
}

type Exports struct {
	Package string
	To      []string
}

type Module struct {
	Name     string
	Open     bool
	Requires []Requires
	Exports  []Exports
	Packages []string
}

type Method struct {
	Name       string
	Descriptor string
	Throws     []string
}

type RawAttribute struct {
	Name string
	Data []byte
}

type Builder struct {
	Name       string
	Super      string
	Interfaces []string
	Access     uint16
	Major      uint16
	SourceFile string
	Methods    []Method
	Module     *Module
	Attributes []RawAttribute
	Long       *int64

	pool  bytes.Buffer
	count uint16
	index map[string]uint16
}

// Class starts a public class extending java/lang/Object.
func Class(name string) *Builder {
	return &Builder{Name: name, Super: "java/lang/Object", Access: 0x0021, Major: 61}
}

// ModuleInfo starts a module-info class for m.
func ModuleInfo(m Module) *Builder {
	return &Builder{Name: "module-info", Access: 0x8000, Major: 53, Module: &m}
}

func (b *Builder) Extends(super string) *Builder {
	b.Super = super
	return b
}

func (b *Builder) Implements(names ...string) *Builder {
	b.Interfaces = append(b.Interfaces, names...)
	return b
}

func (b *Builder) WithSourceFile(name string) *Builder {
	b.SourceFile = name
	return b
}

func (b *Builder) WithMethod(m Method) *Builder {
	b.Methods = append(b.Methods, m)
	return b
}

func (b *Builder) WithAttribute(name string, data []byte) *Builder {
	b.Attributes = append(b.Attributes, RawAttribute{Name: name, Data: data})
	return b
}

func (b *Builder) WithLong(v int64) *Builder {
	b.Long = &v
	return b
}

func (b *Builder) add(key string, entry []byte, wide bool) uint16 {
	if b.index == nil {
		b.index = map[string]uint16{}
		b.count = 1
	}
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := b.count
	b.index[key] = idx
	b.pool.Write(entry)
	b.count++
	if wide {
		b.count++
	}
	return idx
}

func (b *Builder) utf8(s string) uint16 {
	entry := []byte{1}
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(s)))
	entry = append(entry, s...)
	return b.add("u:"+s, entry, false)
}

func (b *Builder) named(tag byte, prefix, name string) uint16 {
	ref := b.utf8(name)
	return b.add(prefix+name, binary.BigEndian.AppendUint16([]byte{tag}, ref), false)
}

func (b *Builder) class(name string) uint16  { return b.named(7, "c:", name) }
func (b *Builder) module(name string) uint16 { return b.named(19, "m:", name) }
func (b *Builder) pkg(name string) uint16    { return b.named(20, "p:", name) }

type out struct{ bytes.Buffer }

func (o *out) u2(v uint16) { o.Write(binary.BigEndian.AppendUint16(nil, v)) }
func (o *out) u4(v uint32) { o.Write(binary.BigEndian.AppendUint32(nil, v)) }

func (b *Builder) attribute(o *out, name string, body []byte) {
	o.u2(b.utf8(name))
	o.u4(uint32(len(body)))
	o.Write(body)
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	b.pool.Reset()
	b.index = nil

	var body out
	body.u2(b.Access)
	body.u2(b.class(b.Name))
	if b.Super != "" && b.Module == nil {
		body.u2(b.class(b.Super))
	} else {
		body.u2(0)
	}
	body.u2(uint16(len(b.Interfaces)))
	for _, name := range b.Interfaces {
		body.u2(b.class(name))
	}
	if b.Long != nil {
		entry := []byte{5}
		entry = binary.BigEndian.AppendUint64(entry, uint64(*b.Long))
		b.add("l", entry, true)
		b.add("d", binary.BigEndian.AppendUint64([]byte{6}, math.Float64bits(1.5)), true)
	}

	body.u2(0) // fields
	body.u2(uint16(len(b.Methods)))
	for _, m := range b.Methods {
		body.u2(0x0001)
		body.u2(b.utf8(m.Name))
		body.u2(b.utf8(m.Descriptor))
		if len(m.Throws) == 0 {
			body.u2(0)
			continue
		}
		body.u2(1)
		var ex out
		ex.u2(uint16(len(m.Throws)))
		for _, t := range m.Throws {
			ex.u2(b.class(t))
		}
		b.attribute(&body, "Exceptions", ex.Bytes())
	}

	var attrs out
	n := uint16(0)
	if b.SourceFile != "" {
		var a out
		a.u2(b.utf8(b.SourceFile))
		b.attribute(&attrs, "SourceFile", a.Bytes())
		n++
	}
	if b.Module != nil {
		b.attribute(&attrs, "Module", b.moduleBody())
		n++
		if len(b.Module.Packages) > 0 {
			var a out
			a.u2(uint16(len(b.Module.Packages)))
			for _, p := range b.Module.Packages {
				a.u2(b.pkg(p))
			}
			b.attribute(&attrs, "ModulePackages", a.Bytes())
			n++
		}
	}
	for _, raw := range b.Attributes {
		b.attribute(&attrs, raw.Name, raw.Data)
		n++
	}
	body.u2(n)
	body.Write(attrs.Bytes())

	var file out
	file.u4(0xCAFEBABE)
	file.u2(0)
	file.u2(b.Major)
	file.u2(b.count)
	file.Write(b.pool.Bytes())
	file.Write(body.Bytes())
	return file.Bytes()
}

func (b *Builder) moduleBody() []byte {
	m := b.Module
	var o out
	o.u2(b.module(m.Name))
	if m.Open {
		o.u2(0x0020)
	} else {
		o.u2(0)
	}
	o.u2(0)
	o.u2(uint16(len(m.Requires)))
	for _, r := range m.Requires {
		o.u2(b.module(r.Module))
		var flags uint16
		if r.Transitive {
			flags |= 0x0020
		}
		if r.Static {
			flags |= 0x0040
		}
		o.u2(flags)
		o.u2(0)
	}
	o.u2(uint16(len(m.Exports)))
	for _, e := range m.Exports {
		o.u2(b.pkg(e.Package))
		o.u2(0)
		o.u2(uint16(len(e.To)))
		for _, to := range e.To {
			o.u2(b.module(to))
		}
	}
	o.u2(0) // opens
	o.u2(0) // uses
	o.u2(0) // provides
	return o.Bytes()
}
