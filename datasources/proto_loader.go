/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/google/gigagrid/core/columns"
)

// ProtoLoader implements Loader for textproto files with dynamic schema
// discovery. The top-level message is flattened along its chain of nested
// repeated message fields: every leaf message becomes one record carrying
// the scalar fields of all its ancestors.
//
// Required config keys:
//   - file_path: Path to the textproto file
//   - message: Fully qualified name of the file's message (e.g. "shop.Catalog")
//
// Optional config keys:
//   - descriptor_set: Binary FileDescriptorSet defining the message, relative
//     to the textproto file. Required when the loader has no registry.
type ProtoLoader struct {
	registry *protoregistry.Files
}

// NewProtoLoader creates a loader resolving messages in registry. A nil
// registry means every config must name a descriptor_set.
func NewProtoLoader(registry *protoregistry.Files) *ProtoLoader {
	return &ProtoLoader{registry: registry}
}

// SourceType returns "textproto".
func (l *ProtoLoader) SourceType() string {
	return "textproto"
}

// Load reads the textproto file named by config["file_path"].
func (l *ProtoLoader) Load(config map[string]string) (*Dataset, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	messageName := config["message"]
	if messageName == "" {
		return nil, fmt.Errorf("message is required")
	}

	files := l.registry
	if set := config["descriptor_set"]; set != "" {
		if !filepath.IsAbs(set) {
			set = filepath.Join(filepath.Dir(filePath), set)
		}
		var err error
		if files, err = readDescriptorSet(set); err != nil {
			return nil, err
		}
	}
	if files == nil {
		return nil, fmt.Errorf("descriptor_set is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read textproto file: %w", err)
	}
	return loadTextproto(files, data, messageName)
}

// LoadBytes parses textproto data as messageName using the loader's registry.
func (l *ProtoLoader) LoadBytes(data []byte, messageName string) (*Dataset, error) {
	if l.registry == nil {
		return nil, fmt.Errorf("descriptor_set is required")
	}
	return loadTextproto(l.registry, data, messageName)
}

func readDescriptorSet(path string) (*protoregistry.Files, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor set: %w", err)
	}
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor set: %w", err)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("invalid descriptor set: %w", err)
	}
	return files, nil
}

func loadTextproto(files *protoregistry.Files, data []byte, messageName string) (*Dataset, error) {
	desc, err := files.FindDescriptorByName(protoreflect.FullName(messageName))
	if err != nil {
		return nil, fmt.Errorf("message %q not found in registry: %w", messageName, err)
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%q is not a message type", messageName)
	}

	msg := dynamicpb.NewMessage(md)
	opts := prototext.UnmarshalOptions{Resolver: registryResolver{files}}
	if err := opts.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to parse textproto: %w", err)
	}

	f := &flattener{levels: messageLevels(md)}
	f.walk(msg, 0, columns.Record{})

	ds := &Dataset{Records: f.records}
	for _, lvl := range f.levels {
		for i, fd := range lvl.scalars {
			ds.Columns = append(ds.Columns, columns.ColumnDef{Tag: lvl.tags[i], Format: protoFormat(fd)})
		}
	}
	return ds, nil
}

// registryResolver resolves message types for Any fields from a file registry.
type registryResolver struct {
	files *protoregistry.Files
}

func (r registryResolver) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	desc, err := r.files.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%q is not a message type", name)
	}
	return dynamicpb.NewMessageType(md), nil
}

func (r registryResolver) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		url = url[i+1:]
	}
	return r.FindMessageByName(protoreflect.FullName(url))
}

func (registryResolver) FindExtensionByName(protoreflect.FullName) (protoreflect.ExtensionType, error) {
	return nil, protoregistry.NotFound
}

func (registryResolver) FindExtensionByNumber(protoreflect.FullName, protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	return nil, protoregistry.NotFound
}

// messageLevel is one message in the flattened chain.
type messageLevel struct {
	// child is the repeated message field leading to the next level, nil
	// for the leaf.
	child   protoreflect.FieldDescriptor
	scalars []protoreflect.FieldDescriptor
	tags    []string
}

// messageLevels walks md along its first repeated message field at each
// level. Singular messages, repeated scalars and maps are not columns. A
// field whose name is already taken by an ancestor is tagged with the
// repeated field leading to it, e.g. "products.name".
func messageLevels(md protoreflect.MessageDescriptor) []messageLevel {
	var levels []messageLevel
	used := map[string]bool{}
	visited := map[protoreflect.FullName]bool{}
	prefix := ""

	for md != nil && !visited[md.FullName()] {
		visited[md.FullName()] = true
		var lvl messageLevel
		var next protoreflect.MessageDescriptor

		fields := md.Fields()
		for i := 0; i < fields.Len(); i++ {
			fd := fields.Get(i)
			switch {
			case fd.IsMap():
			case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
				if fd.IsList() && lvl.child == nil {
					lvl.child = fd
					next = fd.Message()
				}
			case fd.IsList():
			default:
				tag := string(fd.Name())
				if used[tag] {
					tag = prefix + tag
				}
				used[tag] = true
				lvl.scalars = append(lvl.scalars, fd)
				lvl.tags = append(lvl.tags, tag)
			}
		}

		if lvl.child != nil {
			prefix = string(lvl.child.Name()) + "."
			if visited[next.FullName()] {
				lvl.child = nil
			}
		}
		levels = append(levels, lvl)
		md = next
	}
	return levels
}

// flattener accumulates one record per leaf message.
type flattener struct {
	levels  []messageLevel
	records []columns.Record
}

func (f *flattener) walk(msg protoreflect.Message, depth int, rec columns.Record) {
	lvl := f.levels[depth]
	for i, fd := range lvl.scalars {
		rec[lvl.tags[i]] = protoValue(msg, fd)
	}

	if lvl.child == nil {
		f.records = append(f.records, maps.Clone(rec))
		return
	}

	list := msg.Get(lvl.child).List()
	if list.Len() == 0 {
		f.clearFrom(rec, depth+1)
		f.records = append(f.records, maps.Clone(rec))
		return
	}
	for i := 0; i < list.Len(); i++ {
		f.clearFrom(rec, depth+1)
		f.walk(list.Get(i).Message(), depth+1, rec)
	}
}

// clearFrom marks the fields at and below depth as missing.
func (f *flattener) clearFrom(rec columns.Record, depth int) {
	for _, lvl := range f.levels[depth:] {
		for _, tag := range lvl.tags {
			rec[tag] = nil
		}
	}
}

// protoValue converts a scalar field. Unset fields with presence are missing.
func protoValue(msg protoreflect.Message, fd protoreflect.FieldDescriptor) any {
	if fd.HasPresence() && !msg.Has(fd) {
		return nil
	}
	v := msg.Get(fd)
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return float64(v.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return float64(v.Uint())
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return string(v.Bytes())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return float64(v.Enum())
	default:
		return v.String()
	}
}

func protoFormat(fd protoreflect.FieldDescriptor) columns.Format {
	switch fd.Kind() {
	case protoreflect.BoolKind, protoreflect.StringKind, protoreflect.BytesKind, protoreflect.EnumKind:
		return columns.FormatString
	default:
		return columns.FormatNumber
	}
}
