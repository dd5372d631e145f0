package access

import (
	"context"
	"errors"
	"testing"

	"dealdesk/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantID  string
		wantErr bool
	}{
		{"resume root addressed directly", "p1/borrower-resume", "root-br", false},
		{"project resume root", "p1/project-resume", "root-pr", false},
		{"file through folder names", "p1/project-docs/Financials/q3-report.pdf", "file1", false},
		{"folder itself", "p1/project-docs/Financials", "fold1", false},
		{"borrower file under its root", "p1/borrower-docs/tax-return.pdf", "bfile1", false},
		{"direct file-id reference", "p1/borrower-docs/bfile1/tax-return-v2.pdf", "bfile1", false},
		{"leading and trailing slashes are tolerated", "/p1/project-docs/Financials/", "fold1", false},
		{"unknown context segment", "p1/secret-docs/x.pdf", "", true},
		{"unknown project", "p999/project-docs/x.pdf", "", true},
		{"unknown folder name", "p1/project-docs/Nope/x.pdf", "", true},
		{"empty path", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedProjectTree(f)

			got, err := f.resolver.Resolve(context.Background(), tt.path)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrNotFound) {
					t.Errorf("Resolve(%q) error = %v, want not found", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.path, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Resolve(%q) = %s, want %s", tt.path, got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveUploadTarget(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantID       string
		wantExisting bool
		wantFileName string
	}{
		{
			name:         "fresh file in an existing folder targets the folder",
			path:         "p1/project-docs/Financials/new-deck.pdf",
			wantID:       "fold1",
			wantExisting: false,
			wantFileName: "new-deck.pdf",
		},
		{
			name:         "final segment naming an existing file is a version upload",
			path:         "p1/project-docs/Financials/q3-report.pdf",
			wantID:       "file1",
			wantExisting: true,
			wantFileName: "q3-report.pdf",
		},
		{
			name:         "file-id shape targets the existing file",
			path:         "p1/borrower-docs/bfile1/march-statement.pdf",
			wantID:       "bfile1",
			wantExisting: true,
			wantFileName: "march-statement.pdf",
		},
		{
			name:         "unresolvable folders fall back to the nearest ancestor",
			path:         "p1/project-docs/Nope/Deeper/file.pdf",
			wantID:       "root-pd",
			wantExisting: false,
			wantFileName: "file.pdf",
		},
		{
			name:         "upload directly under a root",
			path:         "p1/borrower-docs/fresh.pdf",
			wantID:       "root-bd",
			wantExisting: false,
			wantFileName: "fresh.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedProjectTree(f)

			target, err := f.resolver.ResolveUploadTarget(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("ResolveUploadTarget(%q) error: %v", tt.path, err)
			}
			if target.Resource.ID != tt.wantID {
				t.Errorf("target = %s, want %s", target.Resource.ID, tt.wantID)
			}
			if target.ExistingFile != tt.wantExisting {
				t.Errorf("existing = %v, want %v", target.ExistingFile, tt.wantExisting)
			}
			if target.FileName != tt.wantFileName {
				t.Errorf("file name = %s, want %s", target.FileName, tt.wantFileName)
			}
		})
	}
}

func TestResolveUploadTargetRejectsBarePaths(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)

	for _, path := range []string{"p1/project-docs", "p1", ""} {
		if _, err := f.resolver.ResolveUploadTarget(context.Background(), path); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ResolveUploadTarget(%q) error = %v, want not found", path, err)
		}
	}
}
