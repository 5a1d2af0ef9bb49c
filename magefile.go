//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// Build builds the server binary.
func Build() error {
	mg.Deps(Generate)
	fmt.Println("Building server...")
	return sh.Run("go", "build", "-o", "bin/payment-service", "./cmd/server")
}

// Generate runs all code generation (wire, swagger).
func Generate() error {
	mg.Deps(Wire, Swag)
	return nil
}

// Wire regenerates internal/app/wire_gen.go.
func Wire() error {
	fmt.Println("Running wire...")
	return sh.Run("wire", "./internal/app")
}

// Swag regenerates the swagger docs package from handler annotations.
func Swag() error {
	fmt.Println("Running swag...")
	return sh.Run("swag", "init",
		"--generalInfo", "docs.go",
		"--dir", "./cmd/server,./internal/adapter/inbound/http,./internal/model,./internal/utils/errors",
		"--output", "./cmd/server/docs",
		"--outputTypes", "go",
	)
}

// Test runs all tests.
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "./...")
}

// TestCover runs tests with coverage.
func TestCover() error {
	fmt.Println("Running tests with coverage...")
	return sh.Run("go", "test", "-cover", "-coverprofile=coverage.out", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	fmt.Println("Running linter...")
	return sh.Run("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}

// Migrate applies database migrations using the configured database.
func Migrate() error {
	fmt.Println("Applying migrations...")
	return sh.RunV("go", "run", "./cmd/server", "migrate", "up")
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	_ = os.Remove("coverage.out")
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// All runs tidy, generate, vet, lint, test, and build.
func All() error {
	mg.SerialDeps(Tidy, Generate, Vet, Lint, Test, Build)
	return nil
}

// Dev builds and runs the server for development.
func Dev() error {
	mg.Deps(Build)
	fmt.Println("Starting server...")
	cmd := exec.Command("./bin/payment-service", "serve")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// CI runs the CI pipeline (tidy, generate, vet, test with coverage).
func CI() error {
	mg.SerialDeps(Tidy, Generate, Vet, TestCover)
	return nil
}

// Install installs development tools.
func Install() error {
	fmt.Println("Installing development tools...")

	tools := []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/swaggo/swag/cmd/swag@latest",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	}

	for _, tool := range tools {
		fmt.Printf("  Installing %s\n", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("installing %s: %w", tool, err)
		}
	}

	return nil
}
