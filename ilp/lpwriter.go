package ilp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const termsPerLine = 8

// WriteLP writes m in CPLEX LP format.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\* %s *\\\n", m.Name)
	if m.ModelSense == Maximize {
		fmt.Fprintln(bw, "Maximize")
	} else {
		fmt.Fprintln(bw, "Minimize")
	}
	var objInd []int32
	var objVal []float64
	for j, v := range m.Vars {
		if v.Obj != 0 {
			objInd = append(objInd, int32(j))
			objVal = append(objVal, v.Obj)
		}
	}
	fmt.Fprintf(bw, " OBJ:%s\n", linearExpr(m, objInd, objVal))

	fmt.Fprintln(bw, "Subject To")
	for _, c := range m.Constrs {
		fmt.Fprintf(bw, " %s:%s %s %s\n", c.Name, linearExpr(m, c.Ind, c.Val), senseString(c.Sense), formatNum(c.RHS))
	}

	var bounds []string
	var binaries, generals []string
	for _, v := range m.Vars {
		switch v.Type {
		case Binary:
			binaries = append(binaries, v.Name)
			continue
		case Integer:
			generals = append(generals, v.Name)
		}
		if v.LB == 0 && math.IsInf(v.UB, 1) {
			continue
		}
		bounds = append(bounds, boundString(v))
	}
	if len(bounds) > 0 {
		fmt.Fprintln(bw, "Bounds")
		for _, b := range bounds {
			fmt.Fprintf(bw, " %s\n", b)
		}
	}
	writeNameSection(bw, "Generals", generals)
	writeNameSection(bw, "Binaries", binaries)
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

// WriteLPFile writes m to fileName in CPLEX LP format.
func WriteLPFile(fileName string, m *Model) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err = WriteLP(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func linearExpr(m *Model, ind []int32, val []float64) string {
	var b strings.Builder
	for k, j := range ind {
		if k > 0 && k%termsPerLine == 0 {
			b.WriteString("\n  ")
		}
		coef := val[k]
		sign := "+"
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if k == 0 && sign == "+" {
			b.WriteString(" ")
		} else {
			b.WriteString(" " + sign + " ")
		}
		if coef != 1 {
			b.WriteString(formatNum(coef) + " ")
		}
		b.WriteString(m.Vars[j].Name)
	}
	if len(ind) == 0 {
		b.WriteString(" 0")
	}
	return b.String()
}

func senseString(s Sense) string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "="
	}
}

func boundString(v Var) string {
	switch {
	case math.IsInf(v.LB, -1) && math.IsInf(v.UB, 1):
		return v.Name + " free"
	case v.LB == v.UB:
		return fmt.Sprintf("%s = %s", v.Name, formatNum(v.LB))
	case math.IsInf(v.UB, 1):
		return fmt.Sprintf("%s >= %s", v.Name, formatNum(v.LB))
	case math.IsInf(v.LB, -1):
		return fmt.Sprintf("-inf <= %s <= %s", v.Name, formatNum(v.UB))
	default:
		return fmt.Sprintf("%s <= %s <= %s", formatNum(v.LB), v.Name, formatNum(v.UB))
	}
}

func writeNameSection(w io.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for i := 0; i < len(names); i += termsPerLine {
		end := min(i+termsPerLine, len(names))
		fmt.Fprintf(w, " %s\n", strings.Join(names[i:end], " "))
	}
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', 12, 64)
}
