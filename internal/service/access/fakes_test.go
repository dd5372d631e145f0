package access

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	"dealdesk/internal/domain/repositories"
	accessSvc "dealdesk/internal/domain/services/access"
)

// In-memory repository fakes. They mirror the postgres implementations'
// error contracts (domain.ErrNotFound, ConflictError) closely enough for
// service-level tests.

type fakeResourceRepo struct {
	resources map[string]*models.Resource
	nextID    int
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: make(map[string]*models.Resource)}
}

func (r *fakeResourceRepo) Create(ctx context.Context, res *models.Resource) error {
	if res.ParentID != nil {
		for _, existing := range r.resources {
			if existing.ParentID != nil && *existing.ParentID == *res.ParentID && existing.Name == res.Name {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("resource named %q already exists under parent", res.Name),
					ResourceType: "resource",
					ResourceID:   existing.ID,
				}
			}
		}
	}
	if res.ID == "" {
		r.nextID++
		res.ID = fmt.Sprintf("res-%d", r.nextID)
	}
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	copied := *res
	r.resources[res.ID] = &copied
	return nil
}

func (r *fakeResourceRepo) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("resource %s not found", id)}
	}
	copied := *res
	return &copied, nil
}

func (r *fakeResourceRepo) GetAncestorChain(ctx context.Context, id string) ([]models.Resource, error) {
	var chain []models.Resource
	current, ok := r.resources[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("resource %s not found", id)}
	}
	for current != nil {
		chain = append(chain, *current)
		if current.ParentID == nil {
			break
		}
		current = r.resources[*current.ParentID]
	}
	return chain, nil
}

func (r *fakeResourceRepo) GetChildByName(ctx context.Context, parentID, name string) (*models.Resource, error) {
	for _, res := range r.resources {
		if res.ParentID != nil && *res.ParentID == parentID && res.Name == name {
			copied := *res
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("no child %q under %s", name, parentID)}
}

func (r *fakeResourceRepo) GetProjectRoot(ctx context.Context, projectID string, resourceType models.ResourceType) (*models.Resource, error) {
	for _, res := range r.resources {
		if res.ProjectID != nil && *res.ProjectID == projectID &&
			res.ResourceType == resourceType && res.ParentID == nil {
			copied := *res
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("project %s has no %s root", projectID, resourceType)}
}

func (r *fakeResourceRepo) ListChildren(ctx context.Context, parentID string) ([]models.Resource, error) {
	var children []models.Resource
	for _, res := range r.resources {
		if res.ParentID != nil && *res.ParentID == parentID {
			children = append(children, *res)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (r *fakeResourceRepo) ListByProject(ctx context.Context, projectID string) ([]models.Resource, error) {
	var out []models.Resource
	for _, res := range r.resources {
		if res.ProjectID != nil && *res.ProjectID == projectID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeResourceRepo) SetCurrentVersion(ctx context.Context, resourceID string, versionID *string) error {
	res, ok := r.resources[resourceID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("resource %s not found", resourceID)}
	}
	res.CurrentVersionID = versionID
	return nil
}

func (r *fakeResourceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.resources[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("resource %s not found", id)}
	}
	delete(r.resources, id)
	return nil
}

type permKey struct {
	resourceID string
	userID     string
}

type fakePermissionRepo struct {
	perms map[permKey]*models.Permission
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{perms: make(map[permKey]*models.Permission)}
}

func (r *fakePermissionRepo) Upsert(ctx context.Context, perm *models.Permission) error {
	perm.GrantedAt = time.Now()
	copied := *perm
	r.perms[permKey{perm.ResourceID, perm.UserID}] = &copied
	return nil
}

func (r *fakePermissionRepo) Get(ctx context.Context, resourceID, userID string) (*models.Permission, error) {
	perm, ok := r.perms[permKey{resourceID, userID}]
	if !ok {
		return nil, &domain.NotFoundError{Message: "permission not found"}
	}
	copied := *perm
	return &copied, nil
}

func (r *fakePermissionRepo) GetForChain(ctx context.Context, chain []models.Resource, userID string) ([]models.ChainEntry, error) {
	var entries []models.ChainEntry
	for depth, res := range chain {
		if perm, ok := r.perms[permKey{res.ID, userID}]; ok {
			entries = append(entries, models.ChainEntry{Permission: *perm, Depth: depth})
		}
	}
	return entries, nil
}

func (r *fakePermissionRepo) DeleteByResource(ctx context.Context, resourceID string) error {
	for key := range r.perms {
		if key.resourceID == resourceID {
			delete(r.perms, key)
		}
	}
	return nil
}

type fakeMembershipRepo struct {
	roles map[string]map[string]models.Role // orgID -> userID -> role
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{roles: make(map[string]map[string]models.Role)}
}

func (r *fakeMembershipRepo) setRole(orgID, userID string, role models.Role) {
	if r.roles[orgID] == nil {
		r.roles[orgID] = make(map[string]models.Role)
	}
	r.roles[orgID][userID] = role
}

func (r *fakeMembershipRepo) GetRole(ctx context.Context, orgID, userID string) (models.Role, error) {
	role, ok := r.roles[orgID][userID]
	if !ok {
		return "", &domain.NotFoundError{Message: fmt.Sprintf("user %s is not a member of org %s", userID, orgID)}
	}
	return role, nil
}

func (r *fakeMembershipRepo) ListOwners(ctx context.Context, orgID string) ([]string, error) {
	var owners []string
	for userID, role := range r.roles[orgID] {
		if role == models.RoleOwner {
			owners = append(owners, userID)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

type grantKey struct {
	projectID string
	userID    string
}

type fakeGrantRepo struct {
	grants map[grantKey]*models.ProjectAccessGrant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[grantKey]*models.ProjectAccessGrant)}
}

func (r *fakeGrantRepo) Upsert(ctx context.Context, grant *models.ProjectAccessGrant) error {
	grant.GrantedAt = time.Now()
	copied := *grant
	r.grants[grantKey{grant.ProjectID, grant.UserID}] = &copied
	return nil
}

func (r *fakeGrantRepo) Has(ctx context.Context, projectID, userID string) (bool, error) {
	_, ok := r.grants[grantKey{projectID, userID}]
	return ok, nil
}

func (r *fakeGrantRepo) ListByProject(ctx context.Context, projectID string) ([]models.ProjectAccessGrant, error) {
	var out []models.ProjectAccessGrant
	for key, grant := range r.grants {
		if key.projectID == projectID {
			out = append(out, *grant)
		}
	}
	return out, nil
}

type fakeVersionRepo struct {
	versions []*models.ContentVersion
	nextID   int
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{}
}

func (r *fakeVersionRepo) Create(ctx context.Context, v *models.ContentVersion) error {
	r.nextID++
	v.ID = fmt.Sprintf("ver-%d", r.nextID)
	v.CreatedAt = time.Now()
	copied := *v
	r.versions = append(r.versions, &copied)
	return nil
}

func (r *fakeVersionRepo) GetByID(ctx context.Context, id string) (*models.ContentVersion, error) {
	for _, v := range r.versions {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", id)}
}

func (r *fakeVersionRepo) GetByNumber(ctx context.Context, resourceID string, number int) (*models.ContentVersion, error) {
	for _, v := range r.versions {
		if v.ResourceID == resourceID && v.VersionNumber == number {
			copied := *v
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("version %d of %s not found", number, resourceID)}
}

func (r *fakeVersionRepo) MaxNumber(ctx context.Context, resourceID string) (int, error) {
	max := 0
	for _, v := range r.versions {
		if v.ResourceID == resourceID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (r *fakeVersionRepo) LockResource(ctx context.Context, resourceID string) error {
	return nil
}

func (r *fakeVersionRepo) SupersedeAbove(ctx context.Context, resourceID string, number int) error {
	for _, v := range r.versions {
		if v.ResourceID == resourceID && v.VersionNumber > number {
			v.Status = models.VersionSuperseded
		}
	}
	return nil
}

func (r *fakeVersionRepo) SetStatus(ctx context.Context, versionID string, status models.VersionStatus) error {
	for _, v := range r.versions {
		if v.ID == versionID {
			v.Status = status
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", versionID)}
}

func (r *fakeVersionRepo) ListByResource(ctx context.Context, resourceID string) ([]models.ContentVersion, error) {
	var out []models.ContentVersion
	for _, v := range r.versions {
		if v.ResourceID == resourceID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *fakeVersionRepo) DeleteByResource(ctx context.Context, resourceID string) error {
	kept := r.versions[:0]
	for _, v := range r.versions {
		if v.ResourceID != resourceID {
			kept = append(kept, v)
		}
	}
	r.versions = kept
	return nil
}

// fakeTxManager runs the function directly; the fakes have no transactions
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fixture wires fakes into the full service stack for one test
type fixture struct {
	resources   *fakeResourceRepo
	permissions *fakePermissionRepo
	memberships *fakeMembershipRepo
	grants      *fakeGrantRepo
	versions    *fakeVersionRepo

	evaluator  accessSvc.Evaluator
	authorizer accessSvc.Authorizer
	grantSvc   accessSvc.GrantService
	resSvc     accessSvc.ResourceService
	verSvc     accessSvc.VersionService
	resolver   accessSvc.PathResolver
	storage    accessSvc.StorageAuthz
}

func newFixture(t interface{ Fatalf(string, ...interface{}) }) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rules, err := NewRuleTable()
	if err != nil {
		t.Fatalf("load rule table: %v", err)
	}

	f := &fixture{
		resources:   newFakeResourceRepo(),
		permissions: newFakePermissionRepo(),
		memberships: newFakeMembershipRepo(),
		grants:      newFakeGrantRepo(),
		versions:    newFakeVersionRepo(),
	}

	tx := &fakeTxManager{}
	f.evaluator = NewEvaluator(f.resources, f.permissions, f.memberships, rules, logger)
	f.authorizer = NewAuthorizer(f.evaluator, logger)
	f.grantSvc = NewGrantService(f.resources, f.permissions, f.memberships, f.grants, f.evaluator, tx, logger)
	f.resSvc = NewResourceService(f.resources, f.permissions, f.memberships, f.grants, f.versions, f.evaluator, f.authorizer, tx, logger)
	f.verSvc = NewVersionService(f.resources, f.versions, f.authorizer, tx, logger)
	f.resolver = NewPathResolver(f.resources, logger)
	f.storage = NewStorageAuthz(f.resolver, f.evaluator, logger)

	return f
}

// addResource inserts a node directly into the fake store
func (f *fixture) addResource(id, orgID string, projectID, parentID *string, resourceType models.ResourceType, name string) *models.Resource {
	res := &models.Resource{
		ID:           id,
		OrgID:        orgID,
		ProjectID:    projectID,
		ParentID:     parentID,
		ResourceType: resourceType,
		Name:         name,
		CreatedBy:    "seed",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.resources.resources[id] = res
	return res
}

func strPtr(s string) *string { return &s }
