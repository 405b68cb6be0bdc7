// gen_sample.go writes a small, consistent input set (catalog, attributes,
// design and per-experiment summaries) for trying the service locally.
//
// Usage:
//
//	go run scripts/gen_sample.go -out data
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/MikeSquared-Agency/Assay/internal/fixture"
)

func main() {
	out := flag.String("out", "data", "directory to write the sample into")
	flag.Parse()

	files, err := fixture.WriteDir(*out)
	if err != nil {
		log.Fatalf("write sample: %v", err)
	}

	fmt.Println("sample written:")
	fmt.Printf("  indicators:  %s\n", files.Indicators)
	fmt.Printf("  values:      %s\n", files.Values)
	fmt.Printf("  design:      %s\n", files.Design)
	fmt.Printf("  attributes:  %s\n", files.AttributesDir)
	fmt.Printf("  processed:   %s\n", files.ProcessedDir)
}
