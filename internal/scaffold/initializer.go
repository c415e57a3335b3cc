package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/scenario"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the Drey project structure
// If force is true, it will remove existing drey.yml and scenarios/ directory
func Initialize(force bool) error {
	// Handle --force flag
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	// Get template files
	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	// Create directories
	if err := createDirectories(); err != nil {
		return err
	}

	// Write files
	if err := writeFiles(files); err != nil {
		return err
	}

	// Validate created files
	if err := validateCreatedFiles(); err != nil {
		return err
	}

	return nil
}

// handleForce removes existing files if --force was specified
func handleForce() error {
	// Remove drey.yml if it exists
	if _, err := os.Stat("drey.yml"); err == nil {
		fmt.Println("⚠️  Removing existing drey.yml...")
		if err := os.Remove("drey.yml"); err != nil {
			return fmt.Errorf("failed to remove drey.yml: %w", err)
		}
	}

	// Remove scenarios/ directory if it exists
	if info, err := os.Stat("scenarios"); err == nil && info.IsDir() {
		fmt.Println("⚠️  Removing existing scenarios/ directory...")
		if err := os.RemoveAll("scenarios"); err != nil {
			return fmt.Errorf("failed to remove scenarios/ directory: %w", err)
		}
	}

	return nil
}

// getTemplateFiles reads and processes all template files
func getTemplateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	// drey.yml
	dreyYml, err := templatesFS.ReadFile("templates/drey.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read drey.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        "drey.yml",
		Content:     dreyYml,
		Permissions: 0644,
	})

	// scenarios/first-contact.yml
	firstContact, err := templatesFS.ReadFile("templates/first-contact.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read first-contact.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        filepath.Join("scenarios", "first-contact.yml"),
		Content:     firstContact,
		Permissions: 0644,
	})

	// scenarios/README.md
	readme, err := templatesFS.ReadFile("templates/README.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read README.md template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        filepath.Join("scenarios", "README.md"),
		Content:     readme,
		Permissions: 0644,
	})

	return files, nil
}

// createDirectories creates the necessary directory structure
func createDirectories() error {
	if err := os.MkdirAll("scenarios", 0755); err != nil {
		return fmt.Errorf("failed to create directory scenarios: %w", err)
	}

	return nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return nil
}

// validateCreatedFiles checks that the scaffold output passes the same
// validation the CLI applies when loading it.
func validateCreatedFiles() error {
	if _, err := config.Load("drey.yml"); err != nil {
		return fmt.Errorf("created drey.yml is invalid: %w", err)
	}

	scenarioPath := filepath.Join("scenarios", "first-contact.yml")
	if _, err := scenario.Load(scenarioPath); err != nil {
		return fmt.Errorf("created %s is invalid: %w", scenarioPath, err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized Drey project!")
	fmt.Println("\nCreated:")
	fmt.Println("  ✓ drey.yml")
	fmt.Println("  ✓ scenarios/first-contact.yml")
	fmt.Println("  ✓ scenarios/README.md")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'drey up' to start a simulation instance")
	fmt.Println("  2. Run 'drey run scenarios/first-contact.yml' to drive it")
	fmt.Println("  3. Customize drey.yml and add your own scenarios")
	fmt.Println("\nFor more information, visit: https://github.com/dyluth/drey")
}
