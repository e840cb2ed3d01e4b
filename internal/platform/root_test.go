package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig(t *testing.T) {
	// base/
	//   project/ (porkpie.yaml)
	//     batches/
	//       2026/
	//   hidden/ (.porkpie.yaml)
	//   empty/

	baseDir := t.TempDir()
	projectDir := filepath.Join(baseDir, "project")
	batchDir := filepath.Join(projectDir, "batches")
	nestedDir := filepath.Join(batchDir, "2026")
	hiddenDir := filepath.Join(baseDir, "hidden")
	emptyDir := filepath.Join(baseDir, "empty")

	for _, dir := range []string{nestedDir, hiddenDir, emptyDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(projectDir, "porkpie.yaml"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hiddenDir, ".porkpie.yaml"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	// A directory with the config name is not a config file.
	if err := os.Mkdir(filepath.Join(emptyDir, "porkpie.yaml"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		want      string
		wantErr   bool
	}{
		{"start at project", projectDir, filepath.Join(projectDir, "porkpie.yaml"), false},
		{"start in subdir", batchDir, filepath.Join(projectDir, "porkpie.yaml"), false},
		{"start nested deeply", nestedDir, filepath.Join(projectDir, "porkpie.yaml"), false},
		{"dot file", hiddenDir, filepath.Join(hiddenDir, ".porkpie.yaml"), false},
		{"none found", emptyDir, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindConfig(tt.startPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != "" && filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("FindConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}
