// Package ilp builds the integer programs of the flow/switch placement problem
// and hands them to a pluggable solver backend.
//
// Models are assembled the way a Gurobi C model is: variables are appended one
// by one with their objective coefficient and bounds, constraints reference
// variables by index. Only linear rows and continuous, integer or binary
// columns exist.
package ilp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBadModel is returned when a constraint references a missing variable,
	// its index and value slices differ in length, or a bound is inverted.
	ErrBadModel = errors.New("ilp: bad model")

	// ErrUnknownBackend is returned by Lookup for unregistered names.
	ErrUnknownBackend = errors.New("ilp: unknown solver backend")

	// ErrNoBackend is returned when a solve is requested without a backend.
	ErrNoBackend = errors.New("ilp: no solver backend")
)

type VarType int8

const (
	Continuous VarType = iota
	Binary
	Integer
)

func (t VarType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "continuous"
	}
}

// Sense of a constraint row.
type Sense byte

const (
	LessEqual    Sense = '<'
	GreaterEqual Sense = '>'
	Equal        Sense = '='
)

// ModelSense follows the Gurobi convention: +1 minimizes, -1 maximizes.
type ModelSense int

const (
	Minimize ModelSense = 1
	Maximize ModelSense = -1
)

type Var struct {
	Name string
	Obj  float64
	LB   float64
	UB   float64
	Type VarType
}

type Constr struct {
	Name  string
	Ind   []int32
	Val   []float64
	Sense Sense
	RHS   float64
}

// Model is a linear (mixed) integer program.
type Model struct {
	Name       string
	ModelSense ModelSense
	Vars       []Var
	Constrs    []Constr

	varNames map[string]int
}

func NewModel(name string) *Model {
	return &Model{Name: name, ModelSense: Minimize, varNames: make(map[string]int)}
}

// AddVar appends a variable and returns its index. Binary variables are
// clamped to [0,1].
func (m *Model) AddVar(obj, lb, ub float64, vtype VarType, name string) (int, error) {
	if vtype == Binary {
		lb, ub = math.Max(lb, 0), math.Min(ub, 1)
	}
	if lb > ub || math.IsNaN(lb) || math.IsNaN(ub) || math.IsNaN(obj) {
		return -1, fmt.Errorf("%w: variable %s has bounds [%g,%g]", ErrBadModel, name, lb, ub)
	}
	if name == "" {
		name = fmt.Sprintf("C%d", len(m.Vars))
	}
	if _, dup := m.varNames[name]; dup {
		return -1, fmt.Errorf("%w: duplicate variable name %s", ErrBadModel, name)
	}
	m.varNames[name] = len(m.Vars)
	m.Vars = append(m.Vars, Var{Name: name, Obj: obj, LB: lb, UB: ub, Type: vtype})
	return len(m.Vars) - 1, nil
}

// AddConstr appends the row sum(val[k] * x[ind[k]]) sense rhs.
func (m *Model) AddConstr(ind []int32, val []float64, sense Sense, rhs float64, name string) error {
	if len(ind) != len(val) {
		return fmt.Errorf("%w: constraint %s has %d indices and %d values", ErrBadModel, name, len(ind), len(val))
	}
	switch sense {
	case LessEqual, GreaterEqual, Equal:
	default:
		return fmt.Errorf("%w: constraint %s has sense %q", ErrBadModel, name, sense)
	}
	for _, j := range ind {
		if j < 0 || int(j) >= len(m.Vars) {
			return fmt.Errorf("%w: constraint %s references variable %d of %d", ErrBadModel, name, j, len(m.Vars))
		}
	}
	if name == "" {
		name = fmt.Sprintf("R%d", len(m.Constrs))
	}
	m.Constrs = append(m.Constrs, Constr{
		Name:  name,
		Ind:   append([]int32(nil), ind...),
		Val:   append([]float64(nil), val...),
		Sense: sense,
		RHS:   rhs,
	})
	return nil
}

func (m *Model) SetSense(s ModelSense) { m.ModelSense = s }

func (m *Model) NumVars() int    { return len(m.Vars) }
func (m *Model) NumConstrs() int { return len(m.Constrs) }

// VarIndex looks a variable up by name.
func (m *Model) VarIndex(name string) (int, bool) {
	j, ok := m.varNames[name]
	return j, ok
}

// ObjectiveValue evaluates the objective at x.
func (m *Model) ObjectiveValue(x []float64) float64 {
	obj := 0.0
	for j, v := range m.Vars {
		if j < len(x) {
			obj += v.Obj * x[j]
		}
	}
	return obj
}

// Feasible checks bounds, integrality and every row at x within tol.
func (m *Model) Feasible(x []float64, tol float64) bool {
	if len(x) != len(m.Vars) {
		return false
	}
	for j, v := range m.Vars {
		if x[j] < v.LB-tol || x[j] > v.UB+tol {
			return false
		}
		if v.Type != Continuous && math.Abs(x[j]-math.Round(x[j])) > tol {
			return false
		}
	}
	for _, c := range m.Constrs {
		lhs := 0.0
		for k, j := range c.Ind {
			lhs += c.Val[k] * x[j]
		}
		switch c.Sense {
		case LessEqual:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEqual:
			if lhs < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}
