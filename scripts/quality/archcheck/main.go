package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePrefix = "puppetry/"

type listedPackage struct {
	ImportPath   string
	Imports      []string
	TestImports  []string
	XTestImports []string
}

func main() {
	packages, err := listPackages()
	if err != nil {
		fmt.Fprintf(os.Stderr, "arch-check: %v\n", err)
		os.Exit(1)
	}

	violations := collectViolations(packages)
	if len(violations) == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "arch-check: passed\n")
		return
	}

	_, _ = fmt.Fprintf(os.Stdout, "arch-check: architecture violations:\n")
	for _, violation := range violations {
		_, _ = fmt.Fprintf(os.Stdout, "  - %s\n", violation)
	}
	os.Exit(1)
}

func listPackages() ([]listedPackage, error) {
	cmd := exec.Command("go", "list", "-json", "-test", "./...")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("go list -json -test ./...: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(stdout.Bytes()))
	result := make([]listedPackage, 0, 16)
	for {
		var pkg listedPackage
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode go list output: %w", err)
		}
		if pkg.ImportPath == "" {
			continue
		}
		result = append(result, pkg)
	}

	return result, nil
}

func collectViolations(packages []listedPackage) []string {
	found := make(map[string]struct{})

	for _, pkg := range packages {
		// go list -test synthesizes test binary entries; the base entry
		// already carries their imports via TestImports/XTestImports.
		if strings.HasSuffix(pkg.ImportPath, ".test") || strings.Contains(pkg.ImportPath, " [") {
			continue
		}

		for _, imported := range pkg.Imports {
			reason := violationReason(pkg.ImportPath, imported)
			if reason == "" {
				continue
			}
			entry := fmt.Sprintf("%s -> %s (%s)", pkg.ImportPath, imported, reason)
			found[entry] = struct{}{}
		}

		testImports := append([]string{}, pkg.TestImports...)
		testImports = append(testImports, pkg.XTestImports...)
		for _, imported := range testImports {
			reason := testViolationReason(pkg.ImportPath, imported)
			if reason == "" {
				continue
			}
			entry := fmt.Sprintf("%s (test) -> %s (%s)", pkg.ImportPath, imported, reason)
			found[entry] = struct{}{}
		}
	}

	violations := make([]string, 0, len(found))
	for violation := range found {
		violations = append(violations, violation)
	}
	sort.Strings(violations)

	return violations
}

// violationReason enforces the layering: pkg/puppet is the bottom layer,
// pkg/bot sits on top of it, and pkg/mock is a leaf test double over
// pkg/puppet only.
func violationReason(importer, imported string) string {
	if strings.HasPrefix(importer, modulePrefix+"pkg/puppet") &&
		(strings.HasPrefix(imported, modulePrefix+"pkg/bot") ||
			strings.HasPrefix(imported, modulePrefix+"pkg/mock")) {
		return "pkg/puppet must not import upper layers"
	}

	if strings.HasPrefix(importer, modulePrefix+"pkg/mock") &&
		strings.HasPrefix(imported, modulePrefix+"pkg/bot") {
		return "pkg/mock must not import pkg/bot"
	}

	if strings.HasPrefix(importer, modulePrefix+"pkg/bot") &&
		strings.HasPrefix(imported, modulePrefix+"pkg/mock") {
		return "pkg/bot must not depend on the mock backend"
	}

	return ""
}

// testViolationReason enforces layering for test files. Any layer's tests
// may use the mock backend, but importing pkg/bot from below would still
// create a cycle.
func testViolationReason(importer, imported string) string {
	if strings.HasPrefix(importer, modulePrefix+"pkg/puppet") &&
		strings.HasPrefix(imported, modulePrefix+"pkg/bot") {
		return "pkg/puppet tests must not import pkg/bot"
	}

	if strings.HasPrefix(importer, modulePrefix+"pkg/mock") &&
		strings.HasPrefix(imported, modulePrefix+"pkg/bot") {
		return "pkg/mock tests must not import pkg/bot"
	}

	return ""
}
