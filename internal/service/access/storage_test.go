package access

import (
	"context"
	"errors"
	"testing"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
)

func TestAuthorizeRead(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		path    string
		allowed bool
	}{
		{"owner reads everything", "owner1", "p1/borrower-docs/tax-return.pdf", true},
		{"project manager reads project docs by role default", "pm1", "p1/project-docs/Financials/q3-report.pdf", true},
		{"project manager denied on borrower docs", "pm1", "p1/borrower-docs/tax-return.pdf", false},
		{"member denied on project docs without a grant", "mem1", "p1/project-docs/Financials/q3-report.pdf", false},
		{"unresolvable path is a denial, not a 404", "owner1", "p1/project-docs/Nope/x.pdf", false},
		{"unknown project is a denial", "owner1", "p999/project-docs/x.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedProjectTree(f)

			resource, err := f.storage.AuthorizeRead(context.Background(), tt.userID, tt.path)
			if tt.allowed {
				if err != nil {
					t.Fatalf("AuthorizeRead() error: %v", err)
				}
				if resource == nil || resource.ID == "" {
					t.Error("allowed read returned no resource")
				}
				return
			}
			if !errors.Is(err, domain.ErrPermissionDenied) {
				t.Errorf("AuthorizeRead() error = %v, want permission denied", err)
			}
		})
	}
}

func TestAuthorizeMutateRequiresEdit(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	// A view grant is not enough to overwrite
	f.permissions.perms[permKey{"root-pd", "mem1"}] = &models.Permission{
		ResourceID: "root-pd", UserID: "mem1", Permission: models.LevelView,
	}
	if _, err := f.storage.AuthorizeMutate(ctx, "mem1", "p1/project-docs/Financials/q3-report.pdf"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("AuthorizeMutate() with view error = %v, want permission denied", err)
	}

	f.permissions.perms[permKey{"root-pd", "mem1"}].Permission = models.LevelEdit
	resource, err := f.storage.AuthorizeMutate(ctx, "mem1", "p1/project-docs/Financials/q3-report.pdf")
	if err != nil {
		t.Fatalf("AuthorizeMutate() with edit error: %v", err)
	}
	if resource.ID != "file1" {
		t.Errorf("mutate resolved %s, want file1", resource.ID)
	}
}

func TestAuthorizeUpload(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	// Editor of the docs root can drop a fresh file anywhere below it
	f.permissions.perms[permKey{"root-pd", "mem1"}] = &models.Permission{
		ResourceID: "root-pd", UserID: "mem1", Permission: models.LevelEdit,
	}

	target, err := f.storage.AuthorizeUpload(ctx, "mem1", "p1/project-docs/Financials/new-deck.pdf")
	if err != nil {
		t.Fatalf("AuthorizeUpload() error: %v", err)
	}
	if target.Resource.ID != "fold1" || target.ExistingFile {
		t.Errorf("upload target = %s existing=%v, want fold1 existing=false", target.Resource.ID, target.ExistingFile)
	}

	// Viewer cannot upload
	f.permissions.perms[permKey{"root-pd", "mem1"}].Permission = models.LevelView
	if _, err := f.storage.AuthorizeUpload(ctx, "mem1", "p1/project-docs/Financials/new-deck.pdf"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("AuthorizeUpload() with view error = %v, want permission denied", err)
	}
}

func TestAuthorizeUploadParentFolderFallback(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	// mem1 edits the folder but carries an explicit none on the file itself
	f.permissions.perms[permKey{"fold1", "mem1"}] = &models.Permission{
		ResourceID: "fold1", UserID: "mem1", Permission: models.LevelEdit,
	}
	f.permissions.perms[permKey{"file1", "mem1"}] = &models.Permission{
		ResourceID: "file1", UserID: "mem1", Permission: models.LevelNone,
	}

	// A version upload for that file still goes through on folder rights
	target, err := f.storage.AuthorizeUpload(ctx, "mem1", "p1/project-docs/Financials/q3-report.pdf")
	if err != nil {
		t.Fatalf("AuthorizeUpload() fallback error: %v", err)
	}
	if target.Resource.ID != "file1" || !target.ExistingFile {
		t.Errorf("fallback target = %s existing=%v, want file1 existing=true", target.Resource.ID, target.ExistingFile)
	}

	// Reading the file stays denied; the fallback is upload-only
	if _, err := f.storage.AuthorizeRead(ctx, "mem1", "p1/project-docs/Financials/q3-report.pdf"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("AuthorizeRead() error = %v, want permission denied", err)
	}
}
