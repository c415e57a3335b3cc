package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting checks if drey.yml or scenarios/ directory already exist
// Returns an error if they do, nil otherwise
func CheckExisting() error {
	var existingFiles []string

	// Check for drey.yml
	if _, err := os.Stat("drey.yml"); err == nil {
		existingFiles = append(existingFiles, "drey.yml")
	}

	// Check for scenarios/ directory
	if info, err := os.Stat("scenarios"); err == nil && info.IsDir() {
		existingFiles = append(existingFiles, "scenarios/")
	}

	if len(existingFiles) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'drey init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
