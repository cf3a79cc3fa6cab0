package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// tabular is implemented by results with a row-per-record table form
type tabular interface {
	Table() (headers []string, rows [][]string)
}

// outputResult formats and outputs the result based on the configured format
func (cli *CLI) outputResult(result interface{}) error {
	format := cli.viperInst.GetString("format")
	quiet := cli.viperInst.GetBool("quiet")

	switch format {
	case "json":
		return cli.outputJSON(result)
	case "yaml":
		return cli.outputYAML(result)
	case "table", "":
		return cli.outputTable(result, quiet)
	default:
		return NewValidationError("print result", "format", format,
			"Use one of: table, json, yaml")
	}
}

// outputJSON outputs result as JSON
func (cli *CLI) outputJSON(result interface{}) error {
	encoder := json.NewEncoder(cli.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputYAML outputs result as YAML. Values go through their JSON form
// first so amounts and renamed fields print the same in both formats.
func (cli *CLI) outputYAML(result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(cli.out)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}

// outputTable outputs result as a human-readable table
func (cli *CLI) outputTable(result interface{}, quiet bool) error {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)

	switch r := result.(type) {
	case tabular:
		headers, rows := r.Table()
		if len(rows) == 0 {
			if !quiet {
				fmt.Fprintln(cli.out, "No records.")
			}
			return nil
		}
		if !quiet {
			fmt.Fprintln(w, strings.Join(headers, "\t"))
		}
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s:\t%v\n", k, r[k])
		}
	default:
		return cli.outputYAML(result)
	}

	return w.Flush()
}
