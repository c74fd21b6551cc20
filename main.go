package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	gawki "github.com/benhoyt/goawk/interp"
	gawkp "github.com/benhoyt/goawk/parser"
	"github.com/fatih/color"

	"sql2awk/cg"
	"sql2awk/plan"
	"sql2awk/sql"
)

var (
	fSchema  = flag.String("schema", "", `column schema as "name:type,name:type,..." (types: int, real, str)`)
	fDialect = flag.String("dialect", "portable", `target dialect: "portable" or "gawk"`)
	fOutput  = flag.String("output", "", "write the generated program to this file instead of stdout")
	fQuery   = flag.String("query", "", "SQL query text (default: read from stdin)")
	fExplain = flag.Bool("explain", false, "print the resolved output schema instead of the program")
	fRun     = flag.Bool("run", false, "execute the generated program against stdin rows via an embedded goawk, instead of printing the program")
)

var errColor = color.New(color.FgRed, color.Bold)
var stageColor = color.New(color.FgYellow)

func oops(stage string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", stageColor.Sprintf("[%s]", stage), errColor.Sprint(err))
	os.Exit(1)
}

func readQuery() string {
	if *fQuery != "" {
		return *fQuery
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		oops("read", err)
	}
	return string(data)
}

func main() {
	flag.Parse()

	if *fSchema == "" {
		oops("config", fmt.Errorf("-schema is required"))
	}
	schema, err := plan.ParseSchema(*fSchema)
	if err != nil {
		oops("schema", err)
	}

	dialect, err := plan.ParseDialect(*fDialect)
	if err != nil {
		oops("config", err)
	}

	query := readQuery()

	q, err := sql.Parse(query)
	if err != nil {
		oops("parse", err)
	}

	resolved, err := plan.Resolve(q, schema, dialect)
	if err != nil {
		oops("resolve", err)
	}

	if *fExplain {
		printExplain(resolved)
		if !*fRun {
			return
		}
	}

	program, err := cg.Generate(resolved)
	if err != nil {
		oops("code-gen", err)
	}

	if *fRun {
		if err := runProgram(program); err != nil {
			oops("run", err)
		}
		return
	}

	if *fOutput == "" {
		fmt.Println(program)
		return
	}
	if err := os.WriteFile(*fOutput, []byte(program), 0644); err != nil {
		oops("save", err)
	}
}

func printExplain(r *plan.Resolved) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(os.Stderr, "output schema:")
	for _, c := range r.OutputSchema {
		fmt.Fprintf(os.Stderr, "  %-20s %s\n", c.Name, c.Type)
	}
}

// runProgram feeds stdin rows through an embedded goawk interpreter instead
// of shelling out to a system awk binary, per the -run flag's contract.
func runProgram(program string) error {
	prog, err := gawkp.ParseProgram([]byte(program), nil)
	if err != nil {
		return fmt.Errorf("generated program is not valid awk: %w", err)
	}
	interp, err := gawki.New(prog)
	if err != nil {
		return err
	}
	out := &strings.Builder{}
	_, err = interp.Execute(&gawki.Config{
		Stdin:  os.Stdin,
		Output: out,
	})
	if err != nil {
		return err
	}
	fmt.Print(out.String())
	return nil
}
