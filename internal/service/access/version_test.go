package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

func createVersions(t *testing.T, f *fixture, resourceID string, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		_, err := f.verSvc.CreateVersion(context.Background(), &accessSvc.CreateVersionRequest{
			ResourceID: resourceID,
			FileName:   fmt.Sprintf("upload-%d.pdf", i),
			CreatedBy:  "owner1",
		})
		if err != nil {
			t.Fatalf("CreateVersion(%d) error: %v", i, err)
		}
	}
}

// assertSingleActive verifies the single-active invariant and that the
// resource's current-version pointer matches the active row
func assertSingleActive(t *testing.T, f *fixture, resourceID string, wantNumber int) {
	t.Helper()
	versions, err := f.versions.ListByResource(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("ListByResource() error: %v", err)
	}

	var active *models.ContentVersion
	for i := range versions {
		if versions[i].Status == models.VersionActive {
			if active != nil {
				t.Fatalf("two active versions: %d and %d", active.VersionNumber, versions[i].VersionNumber)
			}
			active = &versions[i]
		}
	}
	if active == nil {
		t.Fatal("no active version")
	}
	if active.VersionNumber != wantNumber {
		t.Errorf("active version = %d, want %d", active.VersionNumber, wantNumber)
	}

	res, err := f.resources.GetByID(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if res.CurrentVersionID == nil || *res.CurrentVersionID != active.ID {
		t.Error("current-version pointer does not match the active version")
	}
}

func TestCreateVersionNumbering(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)

	createVersions(t, f, "file1", 3)

	versions, err := f.versions.ListByResource(context.Background(), "file1")
	if err != nil {
		t.Fatalf("ListByResource() error: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("ledger has %d rows, want 3", len(versions))
	}
	// Newest first
	for i, want := range []int{3, 2, 1} {
		if versions[i].VersionNumber != want {
			t.Errorf("versions[%d] = %d, want %d", i, versions[i].VersionNumber, want)
		}
	}

	assertSingleActive(t, f, "file1", 3)
}

func TestRollbackThenUploadContinuesNumbering(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	createVersions(t, f, "file1", 5)

	err := f.verSvc.Rollback(ctx, &accessSvc.RollbackRequest{
		ResourceID:    "file1",
		TargetVersion: 3,
		Actor:         "owner1",
	})
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	assertSingleActive(t, f, "file1", 3)

	// Versions 4 and 5 keep their numbers, just superseded
	for _, number := range []int{4, 5} {
		v, err := f.versions.GetByNumber(ctx, "file1", number)
		if err != nil {
			t.Fatalf("GetByNumber(%d) error: %v", number, err)
		}
		if v.Status != models.VersionSuperseded {
			t.Errorf("version %d status = %s, want superseded", number, v.Status)
		}
	}

	// The next upload gets 6, not 4
	created, err := f.verSvc.CreateVersion(ctx, &accessSvc.CreateVersionRequest{
		ResourceID: "file1",
		FileName:   "revised.pdf",
		CreatedBy:  "owner1",
	})
	if err != nil {
		t.Fatalf("CreateVersion() after rollback error: %v", err)
	}
	if created.VersionNumber != 6 {
		t.Errorf("post-rollback version = %d, want 6", created.VersionNumber)
	}
	assertSingleActive(t, f, "file1", 6)
}

func TestRollForwardKeepsSingleActive(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	createVersions(t, f, "file1", 5)

	// Back to 3, then forward again to 5. The second rollback targets a
	// number above the active one, so the active row must be retired too.
	for _, target := range []int{3, 5} {
		err := f.verSvc.Rollback(ctx, &accessSvc.RollbackRequest{
			ResourceID:    "file1",
			TargetVersion: target,
			Actor:         "owner1",
		})
		if err != nil {
			t.Fatalf("Rollback(%d) error: %v", target, err)
		}
		assertSingleActive(t, f, "file1", target)
	}

	// 3 and 4 ended up superseded, nothing was renumbered
	for _, number := range []int{3, 4} {
		v, err := f.versions.GetByNumber(ctx, "file1", number)
		if err != nil {
			t.Fatalf("GetByNumber(%d) error: %v", number, err)
		}
		if v.Status != models.VersionSuperseded {
			t.Errorf("version %d status = %s, want superseded", number, v.Status)
		}
	}
}

func TestRollbackRejectsForeignVersion(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)
	ctx := context.Background()

	createVersions(t, f, "file1", 2)

	err := f.verSvc.Rollback(ctx, &accessSvc.RollbackRequest{
		ResourceID:    "file1",
		TargetVersion: 7,
		Actor:         "owner1",
	})
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Errorf("Rollback(unknown number) error = %v, want invalid reference", err)
	}
}

func TestCreateVersionRejectsContainers(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)

	for _, resourceID := range []string{"fold1", "root-pd", "root-bd"} {
		_, err := f.verSvc.CreateVersion(context.Background(), &accessSvc.CreateVersionRequest{
			ResourceID: resourceID,
			FileName:   "anything.pdf",
			CreatedBy:  "owner1",
		})
		if !errors.Is(err, domain.ErrStructural) {
			t.Errorf("CreateVersion(%s) error = %v, want structural error", resourceID, err)
		}
	}
}

func TestCreateVersionRequiresEdit(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)

	_, err := f.verSvc.CreateVersion(context.Background(), &accessSvc.CreateVersionRequest{
		ResourceID: "file1",
		FileName:   "sneaky.pdf",
		CreatedBy:  "mem1",
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("CreateVersion() by member error = %v, want permission denied", err)
	}
}

func TestResumeRootsHoldVersions(t *testing.T) {
	f := newFixture(t)
	seedProjectTree(f)

	// Resume roots are content-bearing, unlike the docs roots
	created, err := f.verSvc.CreateVersion(context.Background(), &accessSvc.CreateVersionRequest{
		ResourceID: "root-br",
		FileName:   "resume.pdf",
		CreatedBy:  "owner1",
	})
	if err != nil {
		t.Fatalf("CreateVersion(borrower resume) error: %v", err)
	}
	if created.VersionNumber != 1 {
		t.Errorf("version = %d, want 1", created.VersionNumber)
	}
}

func TestBuildStorageLocator(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		number   int
		fileName string
		want     string
	}{
		{
			name:     "project docs file",
			resource: "file1",
			number:   2,
			fileName: "q3-report.pdf",
			want:     "p1/project-docs/file1/v2_q3-report.pdf",
		},
		{
			name:     "borrower docs file",
			resource: "bfile1",
			number:   1,
			fileName: "tax-return.pdf",
			want:     "p1/borrower-docs/bfile1/v1_tax-return.pdf",
		},
		{
			name:     "path separators are stripped from the name",
			resource: "file1",
			number:   3,
			fileName: "../../etc/passwd",
			want:     "p1/project-docs/file1/v3_....etcpasswd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedProjectTree(f)

			chain, err := f.resources.GetAncestorChain(context.Background(), tt.resource)
			if err != nil {
				t.Fatalf("GetAncestorChain() error: %v", err)
			}
			got := BuildStorageLocator(&chain[0], chain, tt.number, tt.fileName)
			if got != tt.want {
				t.Errorf("BuildStorageLocator() = %q, want %q", got, tt.want)
			}
		})
	}
}
