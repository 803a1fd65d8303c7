// Command legfed loads legume genomics sources into the object store and
// runs the QTL/gene overlap post-processing step.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.New(os.Stderr, "", 0).Fatal(err)
	}
}
