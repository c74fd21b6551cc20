package plan

import "fmt"

// funcSig describes one scalar function's arity and how its return type
// depends on its argument types, per §4.4's runtime library ABI and the
// native awk builtins this spec also exposes (substr, length, int, and the
// gawk math builtins).
type funcSig struct {
	minArgs, maxArgs int  // maxArgs == -1 means unbounded
	gawkOnly         bool
	result           func(args []Datatype) (Datatype, error)
}

func sameAsFirstNumeric(args []Datatype) (Datatype, error) {
	if !args[0].Numeric() {
		return 0, fmt.Errorf("expects a numeric argument, got %s", args[0])
	}
	return args[0], nil
}

func fixed(dt Datatype) func([]Datatype) (Datatype, error) {
	return func(args []Datatype) (Datatype, error) { return dt, nil }
}

func widestNumeric(args []Datatype) (Datatype, error) {
	acc := TypeInt
	for _, a := range args {
		if !a.Numeric() {
			return 0, fmt.Errorf("expects numeric arguments, got %s", a)
		}
		acc = promote(acc, a)
	}
	return acc, nil
}

// scalarFuncs is the function-name -> signature table, keyed by the
// lowercase name the parser and resolver normalize function names to. Functions
// gated gawkOnly are only legal under DialectGawk (§4.4).
var scalarFuncs = map[string]funcSig{
	// runtime-library helpers (cg/builtin.go)
	"abs":         {minArgs: 1, maxArgs: 1, result: sameAsFirstNumeric},
	"ltrim":       {minArgs: 2, maxArgs: 2, result: fixed(TypeStr)}, // (x, charclass)
	"rtrim":       {minArgs: 2, maxArgs: 2, result: fixed(TypeStr)}, // (x, charclass)
	"trim":        {minArgs: 2, maxArgs: 2, result: fixed(TypeStr)}, // (x, charclass)
	"lower":       {minArgs: 1, maxArgs: 1, result: fixed(TypeStr)},
	"upper":       {minArgs: 1, maxArgs: 1, result: fixed(TypeStr)},
	"replace":     {minArgs: 3, maxArgs: 3, result: fixed(TypeStr)},
	"like2regex":  {minArgs: 1, maxArgs: 1, result: fixed(TypeStr)},
	"ip2bin":      {minArgs: 1, maxArgs: 1, result: fixed(TypeStr)},
	"bin2ip":      {minArgs: 1, maxArgs: 1, result: fixed(TypeStr)},
	"ip_in_cidr":  {minArgs: 2, maxArgs: 2, result: fixed(TypeInt)},
	"mask_ip":     {minArgs: 2, maxArgs: 2, result: fixed(TypeStr)},
	"max":         {minArgs: 2, maxArgs: -1, result: widestNumeric},
	"min":         {minArgs: 2, maxArgs: -1, result: widestNumeric},

	// native awk builtins, exposed directly
	"substr":  {minArgs: 2, maxArgs: 3, result: fixed(TypeStr)},
	"length":  {minArgs: 1, maxArgs: 1, result: fixed(TypeInt)},
	"int":     {minArgs: 1, maxArgs: 1, result: fixed(TypeInt)},

	// gawk-only math/time builtins
	"atan2":    {minArgs: 2, maxArgs: 2, gawkOnly: true, result: fixed(TypeReal)},
	"cos":      {minArgs: 1, maxArgs: 1, gawkOnly: true, result: fixed(TypeReal)},
	"exp":      {minArgs: 1, maxArgs: 1, gawkOnly: true, result: fixed(TypeReal)},
	"log":      {minArgs: 1, maxArgs: 1, gawkOnly: true, result: fixed(TypeReal)},
	"rand":     {minArgs: 0, maxArgs: 0, gawkOnly: true, result: fixed(TypeReal)},
	"sin":      {minArgs: 1, maxArgs: 1, gawkOnly: true, result: fixed(TypeReal)},
	"sqrt":     {minArgs: 1, maxArgs: 1, gawkOnly: true, result: fixed(TypeReal)},
	"strftime": {minArgs: 1, maxArgs: 2, gawkOnly: true, result: fixed(TypeStr)},
	"submatch": {minArgs: 2, maxArgs: 2, gawkOnly: true, result: fixed(TypeStr)},
}

// aggFuncs is the set of valid aggregate names (§4.2/§4.3). "min"/"max" are
// deliberately also scalar names above; the parser disambiguates by arity
// and DISTINCT presence (sql/parser.go: classifyCall).
var aggFuncs = map[string]bool{
	"count": true,
	"avg":   true,
	"max":   true,
	"min":   true,
	"sum":   true,
	"total": true,
}

func IsAggregateFunc(name string) bool { return aggFuncs[name] }

func IsScalarFunc(name string) bool {
	_, ok := scalarFuncs[name]
	return ok
}

func lookupFunc(name string, dialect Dialect) (funcSig, error) {
	sig, ok := scalarFuncs[name]
	if !ok {
		return funcSig{}, fmt.Errorf("unknown function %q", name)
	}
	if sig.gawkOnly && dialect != DialectGawk {
		return funcSig{}, fmt.Errorf("function %q requires the gawk dialect", name)
	}
	return sig, nil
}

func checkArity(name string, sig funcSig, n int) error {
	if n < sig.minArgs || (sig.maxArgs >= 0 && n > sig.maxArgs) {
		return fmt.Errorf("function %q called with %d arguments", name, n)
	}
	return nil
}

// aggResultType implements §3's aggregate result typing: count is always
// int; every other aggregate (avg, sum, total, min, max) inherits its
// argument's own declared type.
func aggResultType(name string, argType Datatype) Datatype {
	if name == "count" {
		return TypeInt
	}
	return argType
}
