// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"
)

// interfaceMethodPattern matches method declarations inside an interface's
// body, e.g. "Write(data []byte) error" or "Flush() error".
var interfaceMethodPattern = regexp.MustCompile(`(?m)^\s*([A-Z][a-zA-Z0-9_]*)\s*\(`)

// ImplementsEdge records that concreteType's method set satisfies
// interfaceName — the best-effort, whole-project structural-typing edge
// whole-tree ingestion supplements beyond the entities a single file's
// extraction alone can determine.
type ImplementsEdge struct {
	TypeName      string
	InterfaceName string
}

// BuildImplementsIndex matches concrete types against interfaces by method
// set across the type and method candidates passed in. A type implements an
// interface when its declared methods are a superset of the interface's.
// A method's owning type is taken from its Candidate.Name ("Type.Method");
// methods whose name has no "." are ignored.
func BuildImplementsIndex(types []Candidate, methods []Candidate) []ImplementsEdge {
	interfaces := extractInterfaceMethods(types)
	typeMethods := buildTypeMethodSets(methods)

	interfaceNames := make(map[string]bool, len(interfaces))
	for _, iface := range interfaces {
		interfaceNames[iface.name] = true
	}

	var edges []ImplementsEdge
	for _, iface := range interfaces {
		if len(iface.methods) == 0 {
			continue
		}
		for typeName, methodSet := range typeMethods {
			if interfaceNames[typeName] {
				continue
			}
			if hasAllMethods(methodSet, iface.methods) {
				edges = append(edges, ImplementsEdge{TypeName: typeName, InterfaceName: iface.name})
			}
		}
	}
	return edges
}

type interfaceInfo struct {
	name    string
	methods []string
}

func extractInterfaceMethods(types []Candidate) []interfaceInfo {
	var result []interfaceInfo
	for _, t := range types {
		if t.EntityType != "trait" {
			continue
		}
		matches := interfaceMethodPattern.FindAllStringSubmatch(t.Code, -1)
		var names []string
		for _, m := range matches {
			if len(m) > 1 {
				names = append(names, m[1])
			}
		}
		result = append(result, interfaceInfo{name: t.Name, methods: names})
	}
	return result
}

// buildTypeMethodSets groups method Candidates named "Type.Method" (the
// naming convention extractors use for methods with a receiver/owner) by
// owning type.
func buildTypeMethodSets(methods []Candidate) map[string]map[string]bool {
	typeMethods := make(map[string]map[string]bool)
	for _, m := range methods {
		if !strings.Contains(m.Name, ".") {
			continue
		}
		parts := strings.SplitN(m.Name, ".", 2)
		typeName, methodName := parts[0], parts[1]
		if typeMethods[typeName] == nil {
			typeMethods[typeName] = make(map[string]bool)
		}
		typeMethods[typeName][methodName] = true
	}
	return typeMethods
}

func hasAllMethods(methods map[string]bool, required []string) bool {
	for _, m := range required {
		if !methods[m] {
			return false
		}
	}
	return true
}
