//go:build ignore

// gen-schema writes the JSON Schema of each document kind into the
// directory given as the first argument (default "jsonschema").
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/mcpstd/pkg/document"
)

func main() {
	dir := "jsonschema"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	for _, kind := range []document.Kind{document.KindSchema, document.KindContext} {
		data, err := document.GenerateJSONSchema(kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		path := filepath.Join(dir, string(kind)+"-document.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}
