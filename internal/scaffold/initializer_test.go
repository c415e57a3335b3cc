package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/scenario"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name:  "fresh initialization",
			force: false,
			setupFunc: func(dir string) {
				// No setup needed - clean directory
			},
			wantErr: false,
		},
		{
			name:  "force initialization removes existing files",
			force: true,
			setupFunc: func(dir string) {
				// Create existing files
				os.WriteFile(filepath.Join(dir, "drey.yml"), []byte("old content"), 0644)
				os.MkdirAll(filepath.Join(dir, "scenarios"), 0755)
				os.WriteFile(filepath.Join(dir, "scenarios", "old.yml"), []byte("old"), 0644)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "init-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			// Change to test directory
			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			// Run setup
			tt.setupFunc(tmpDir)

			// Run initialization
			err = Initialize(tt.force)

			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				// Verify all expected files were created
				expectedFiles := []string{
					"drey.yml",
					filepath.Join("scenarios", "first-contact.yml"),
					filepath.Join("scenarios", "README.md"),
				}

				for _, ef := range expectedFiles {
					fullPath := filepath.Join(tmpDir, ef)
					if _, err := os.Stat(fullPath); err != nil {
						t.Errorf("Expected file %s to exist, but got error: %v", ef, err)
					}
				}

				// Verify drey.yml passes configuration validation
				cfg, err := config.Load(filepath.Join(tmpDir, "drey.yml"))
				if err != nil {
					t.Errorf("Created drey.yml failed validation: %v", err)
				} else if cfg.Version != "1.0" {
					t.Errorf("Created drey.yml has version %q, want 1.0", cfg.Version)
				}

				// Verify the example scenario passes scenario validation
				sc, err := scenario.Load(filepath.Join(tmpDir, "scenarios", "first-contact.yml"))
				if err != nil {
					t.Errorf("Created first-contact.yml failed validation: %v", err)
				} else if len(sc.Steps) == 0 {
					t.Errorf("Created first-contact.yml has no steps")
				}

				// If force was true, verify old files were removed
				if tt.force {
					oldScenario := filepath.Join(tmpDir, "scenarios", "old.yml")
					if _, err := os.Stat(oldScenario); err == nil {
						t.Errorf("Expected old.yml to be removed, but it still exists")
					}
				}
			}
		})
	}
}

func TestHandleForce(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name: "removes existing drey.yml",
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "drey.yml"), []byte("content"), 0644)
			},
			wantErr: false,
		},
		{
			name: "removes existing scenarios directory",
			setupFunc: func(dir string) {
				os.MkdirAll(filepath.Join(dir, "scenarios"), 0755)
				os.WriteFile(filepath.Join(dir, "scenarios", "file.yml"), []byte("test"), 0644)
			},
			wantErr: false,
		},
		{
			name: "handles when files don't exist",
			setupFunc: func(dir string) {
				// No files to remove
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "force-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = handleForce()

			if (err != nil) != tt.wantErr {
				t.Errorf("handleForce() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			// Verify files were removed
			if _, err := os.Stat(filepath.Join(tmpDir, "drey.yml")); err == nil {
				t.Errorf("drey.yml should have been removed")
			}

			if _, err := os.Stat(filepath.Join(tmpDir, "scenarios")); err == nil {
				t.Errorf("scenarios/ should have been removed")
			}
		})
	}
}

func TestGetTemplateFiles(t *testing.T) {
	files, err := getTemplateFiles()
	if err != nil {
		t.Fatalf("getTemplateFiles() error = %v", err)
	}

	expectedFiles := map[string]struct {
		permissions os.FileMode
	}{
		"drey.yml": {0644},
		filepath.Join("scenarios", "first-contact.yml"): {0644},
		filepath.Join("scenarios", "README.md"):         {0644},
	}

	if len(files) != len(expectedFiles) {
		t.Errorf("getTemplateFiles() returned %d files, want %d", len(files), len(expectedFiles))
	}

	for _, file := range files {
		expected, ok := expectedFiles[file.Path]
		if !ok {
			t.Errorf("Unexpected file in template: %s", file.Path)
			continue
		}

		if file.Permissions != expected.permissions {
			t.Errorf("File %s has permissions %v, want %v", file.Path, file.Permissions, expected.permissions)
		}

		if len(file.Content) == 0 {
			t.Errorf("File %s has empty content", file.Path)
		}
	}
}

func TestValidateCreatedFiles(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name: "valid scaffold output",
			setupFunc: func(dir string) {
				files, err := getTemplateFiles()
				if err != nil {
					t.Fatal(err)
				}
				os.MkdirAll(filepath.Join(dir, "scenarios"), 0755)
				for _, f := range files {
					os.WriteFile(filepath.Join(dir, f.Path), f.Content, f.Permissions)
				}
			},
			wantErr: false,
		},
		{
			name: "config fails schema validation",
			setupFunc: func(dir string) {
				files, err := getTemplateFiles()
				if err != nil {
					t.Fatal(err)
				}
				os.MkdirAll(filepath.Join(dir, "scenarios"), 0755)
				for _, f := range files {
					os.WriteFile(filepath.Join(dir, f.Path), f.Content, f.Permissions)
				}
				// Valid YAML, wrong version
				os.WriteFile(filepath.Join(dir, "drey.yml"), []byte("version: '9.9'\n"), 0644)
			},
			wantErr: true,
		},
		{
			name: "missing config file",
			setupFunc: func(dir string) {
				// Don't create drey.yml
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "validate-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = validateCreatedFiles()

			if (err != nil) != tt.wantErr {
				t.Errorf("validateCreatedFiles() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
