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

package graph

import "github.com/kraklabs/codegraph/pkg/sigparse"

// MetricStatus grades a single CK metric against its threshold.
type MetricStatus int

const (
	// StatusGood: within the healthy threshold.
	StatusGood MetricStatus = iota
	// StatusWarning: past the healthy threshold, not yet critical.
	StatusWarning
	// StatusCritical: past the critical threshold.
	StatusCritical
)

func (s MetricStatus) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "good"
	}
}

// HealthGrade is the worst-of-four overall grade for a class.
type HealthGrade int

const (
	// HealthGood: all four CK metrics within threshold.
	HealthGood HealthGrade = iota
	HealthWarning
	HealthCritical
)

func (h HealthGrade) String() string {
	switch h {
	case HealthWarning:
		return "warning"
	case HealthCritical:
		return "critical"
	default:
		return "good"
	}
}

// Documented thresholds, informed by the widely cited Chidamber–Kemerer
// guidance bands: CBO > 14 warning / > 20 critical; LCOM > 0.8 warning /
// > 0.95 critical; RFC > 50 warning / > 100 critical; WMC > 20 warning /
// > 50 critical.
const (
	cboWarning, cboCritical   = 14, 20
	lcomWarning, lcomCritical = 0.8, 0.95
	rfcWarning, rfcCritical   = 50, 100
	wmcWarning, wmcCritical   = 20, 50
)

// EvaluateSingleMetricStatus grades value against (warning, critical)
// thresholds where higher is worse.
func EvaluateSingleMetricStatus(value, warning, critical float64) MetricStatus {
	switch {
	case value > critical:
		return StatusCritical
	case value > warning:
		return StatusWarning
	default:
		return StatusGood
	}
}

// ClassBody is the minimal shape CK needs: a class/struct name, its methods
// (each with its own outgoing edges already present in g), and its fields.
type ClassBody struct {
	ClassKey string
	Methods  []string // ISGL1 keys of methods belonging to this class
	Fields   []string // field identifiers, used for LCOM
	// FieldAccess maps each method key to the set of field identifiers it
	// touches, for LCOM. Callers populate this from extraction data the
	// core analysis engine does not itself parse.
	FieldAccess map[string]map[string]bool
}

// CkMetricsResult is the CK suite for one class.
type CkMetricsResult struct {
	ClassKey                                     string
	CBO                                          int
	LCOM                                         float64
	RFC                                          int
	WMC                                          int
	CBOStatus, LCOMStatus, RFCStatus, WMCStatus  MetricStatus
	Health                                       HealthGrade
}

// CalculateCouplingBetweenObjects counts distinct external classes coupled
// to cls.ClassKey via its methods' edges in g.
func CalculateCouplingBetweenObjects(g *AdjacencyListGraphRepresentation, cls ClassBody, methodOwner map[string]string) int {
	coupled := make(map[string]bool)
	methodSet := make(map[string]bool, len(cls.Methods))
	for _, m := range cls.Methods {
		methodSet[m] = true
	}
	for _, m := range cls.Methods {
		for _, to := range g.OutNeighbors(m) {
			if owner, ok := methodOwner[to]; ok && owner != cls.ClassKey {
				coupled[owner] = true
			} else if !methodSet[to] && to != cls.ClassKey {
				coupled[to] = true
			}
		}
	}
	return len(coupled)
}

// CalculateLackCohesionMethods computes LCOM as the fraction of method
// pairs that share no common field access (0 = fully cohesive, 1 = no
// method shares a field with any other).
func CalculateLackCohesionMethods(cls ClassBody) float64 {
	n := len(cls.Methods)
	if n < 2 {
		return 0
	}
	pairs := 0
	disjoint := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs++
			if !shareField(cls.FieldAccess[cls.Methods[i]], cls.FieldAccess[cls.Methods[j]]) {
				disjoint++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(disjoint) / float64(pairs)
}

func shareField(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for f := range a {
		if b[f] {
			return true
		}
	}
	return false
}

// CalculateResponseForClass counts the class's own methods plus every
// distinct method it calls (directly, one hop — RFC1).
func CalculateResponseForClass(g *AdjacencyListGraphRepresentation, cls ClassBody) int {
	called := make(map[string]bool)
	for _, m := range cls.Methods {
		called[m] = true
		for _, to := range g.OutNeighbors(m) {
			called[to] = true
		}
	}
	return len(called)
}

// CalculateWeightedMethodsClass returns the method count, weighted
// uniformly at 1 per method. Callers with signature strings available
// should prefer CalculateWeightedMethodsClassBySignature, which weighs each
// method by its parameter count as a cyclomatic-complexity proxy.
func CalculateWeightedMethodsClass(cls ClassBody) int {
	return len(cls.Methods)
}

// CalculateWeightedMethodsClassBySignature weighs each method by
// 1+len(params) parsed from its signature string, falling back to a weight
// of 1 for methods with no recorded signature. signatures maps method key
// to its best-effort signature string (empty entries are fine).
func CalculateWeightedMethodsClassBySignature(cls ClassBody, signatures map[string]string) int {
	total := 0
	for _, m := range cls.Methods {
		sig := signatures[m]
		if sig == "" {
			total++
			continue
		}
		total += 1 + len(sigparse.ParseGoParams(sig))
	}
	return total
}

// ComputeCkMetricsSuite evaluates all four CK metrics for cls and grades
// the class's overall health as the worst of the four. signatures, when
// non-nil, weighs WMC by parameter count instead of a uniform 1 per method.
func ComputeCkMetricsSuite(g *AdjacencyListGraphRepresentation, cls ClassBody, methodOwner map[string]string, signatures map[string]string) CkMetricsResult {
	cbo := CalculateCouplingBetweenObjects(g, cls, methodOwner)
	lcom := CalculateLackCohesionMethods(cls)
	rfc := CalculateResponseForClass(g, cls)
	var wmc int
	if signatures != nil {
		wmc = CalculateWeightedMethodsClassBySignature(cls, signatures)
	} else {
		wmc = CalculateWeightedMethodsClass(cls)
	}

	r := CkMetricsResult{
		ClassKey:   cls.ClassKey,
		CBO:        cbo,
		LCOM:       lcom,
		RFC:        rfc,
		WMC:        wmc,
		CBOStatus:  EvaluateSingleMetricStatus(float64(cbo), cboWarning, cboCritical),
		LCOMStatus: EvaluateSingleMetricStatus(lcom, lcomWarning, lcomCritical),
		RFCStatus:  EvaluateSingleMetricStatus(float64(rfc), rfcWarning, rfcCritical),
		WMCStatus:  EvaluateSingleMetricStatus(float64(wmc), wmcWarning, wmcCritical),
	}
	r.Health = GradeCkMetricsHealth(r.CBOStatus, r.LCOMStatus, r.RFCStatus, r.WMCStatus)
	return r
}

// GradeCkMetricsHealth is the worst-of-four grade across the four statuses.
func GradeCkMetricsHealth(statuses ...MetricStatus) HealthGrade {
	worst := StatusGood
	for _, s := range statuses {
		if s > worst {
			worst = s
		}
	}
	switch worst {
	case StatusCritical:
		return HealthCritical
	case StatusWarning:
		return HealthWarning
	default:
		return HealthGood
	}
}
