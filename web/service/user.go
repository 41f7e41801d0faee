package service

import (
	"user-center/database"
	"user-center/database/model"
	"user-center/util/common"
	"user-center/util/crypto"
	"user-center/web/policy"

	"gorm.io/gorm"
)

const emailTakenReason = "The email has already been taken."

// UserService is the user directory: slug-keyed CRUD with the access policy
// applied to every mutating operation and audit entries recorded after each
// successful one.
type UserService struct {
	DB       *gorm.DB
	activity *ActivityService
}

func NewUserService() *UserService {
	return &UserService{
		DB:       database.GetDB(),
		activity: NewActivityService(),
	}
}

// snapshotUser restricts a user record to the audit-tracked fields.
func snapshotUser(u *model.User) map[string]any {
	return map[string]any{
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"active": u.Active,
	}
}

func principalTarget(u *model.User) policy.Target {
	return policy.Target{Id: u.Id, Slug: u.Slug}
}

// Search returns a page of users matching the search term against name or
// email, newest first.
func (s *UserService) Search(search string, page, perPage int) ([]model.User, int64, error) {
	query := s.DB.Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage = normalizePage(page, perPage)
	var users []model.User
	err := query.Order("created_at DESC, id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&users).Error
	return users, total, err
}

func (s *UserService) GetBySlug(slug string) (*model.User, error) {
	user := &model.User{}
	err := s.DB.Where("slug = ?", slug).First(user).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	}
	return user, err
}

func (s *UserService) GetById(id int) (*model.User, error) {
	user := &model.User{}
	err := s.DB.First(user, id).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	}
	return user, err
}

func (s *UserService) GetByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := s.DB.Where("email = ?", email).First(user).Error
	if database.IsNotFound(err) {
		return nil, common.ErrNotFound
	}
	return user, err
}

// EmailTaken reports whether the email belongs to any user other than
// excludeId.
func (s *UserService) EmailTaken(email string, excludeId int) (bool, error) {
	query := s.DB.Model(&model.User{}).Where("email = ?", email)
	if excludeId > 0 {
		query = query.Where("id <> ?", excludeId)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Create makes a new user on behalf of p. Admin only; the initial field
// values are audited unconditionally.
func (s *UserService) Create(p policy.Principal, name, email, password, role string, active bool, meta *RequestMeta) (*model.User, error) {
	if d := policy.CanCreate(p); d.Verdict != policy.VerdictAllow {
		return nil, &common.ForbiddenError{Reason: d.Reason}
	}

	taken, err := s.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &common.FieldError{Field: "email", Reason: emailTakenReason}
	}

	if role == "" {
		role = model.RoleUser
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Slug:     database.NewUserSlug(),
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		Active:   active,
	}
	if err := s.DB.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, &common.ConflictError{Message: "email already in use"}
		}
		return nil, err
	}

	s.activity.Record(p.Id, ActionCreatedUser, user.Slug, snapshotUser(user), meta)
	return user, nil
}

// Update applies the policy-admitted subset of the requested mutation to
// the user identified by slug and audits the resulting field diff. A no-op
// update succeeds without recording anything.
func (s *UserService) Update(p policy.Principal, slug string, requested policy.Mutation, meta *RequestMeta) (*model.User, error) {
	user, err := s.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	decision := policy.FilterUpdate(p, principalTarget(user), requested)
	if decision.Verdict != policy.VerdictAllow {
		return nil, &common.ForbiddenError{Reason: decision.Reason}
	}
	fields := decision.Fields

	if fields.Email != nil && *fields.Email != user.Email {
		taken, err := s.EmailTaken(*fields.Email, user.Id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &common.FieldError{Field: "email", Reason: emailTakenReason}
		}
	}

	before := snapshotUser(user)
	updates := map[string]any{}
	if fields.Name != nil {
		user.Name = *fields.Name
		updates["name"] = *fields.Name
	}
	if fields.Email != nil {
		user.Email = *fields.Email
		updates["email"] = *fields.Email
	}
	if fields.Role != nil {
		user.Role = *fields.Role
		updates["role"] = *fields.Role
	}
	if fields.Active != nil {
		user.Active = *fields.Active
		updates["active"] = *fields.Active
	}
	passwordChanged := fields.Password != nil && *fields.Password != ""
	if passwordChanged {
		hash, err := crypto.HashPassword(*fields.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
		updates["password"] = hash
	}

	if len(updates) == 0 {
		return user, nil
	}

	err = s.DB.Model(&model.User{}).Where("id = ?", user.Id).Updates(updates).Error
	if err != nil {
		if database.IsDuplicate(err) {
			return nil, &common.ConflictError{Message: "email already in use"}
		}
		return nil, err
	}

	changes := map[string]any{}
	for field, change := range policy.Diff(before, snapshotUser(user)) {
		changes[field] = change
	}
	if passwordChanged {
		changes["password"] = map[string]any{"changed": true}
	}
	if len(changes) > 0 {
		s.activity.Record(p.Id, ActionUpdatedUser, user.Slug, changes, meta)
	}
	return user, nil
}

// Delete removes the user identified by slug, auditing the final field
// values. The audit trail itself is kept; only the actor reference remains.
func (s *UserService) Delete(p policy.Principal, slug string, meta *RequestMeta) error {
	user, err := s.GetBySlug(slug)
	if err != nil {
		return err
	}

	if d := policy.CanDelete(p, principalTarget(user)); d.Verdict != policy.VerdictAllow {
		return &common.ForbiddenError{Reason: d.Reason}
	}

	values := snapshotUser(user)
	if err := s.DB.Delete(&model.User{}, user.Id).Error; err != nil {
		return err
	}

	s.activity.Record(p.Id, ActionDeletedUser, slug, values, meta)
	return nil
}

// ChangeStatus activates or deactivates the user identified by slug.
func (s *UserService) ChangeStatus(p policy.Principal, slug string, active bool) (*model.User, error) {
	user, err := s.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	if d := policy.CanChangeStatus(p, principalTarget(user), active); d.Verdict != policy.VerdictAllow {
		return nil, &common.ForbiddenError{Reason: d.Reason}
	}

	err = s.DB.Model(&model.User{}).Where("id = ?", user.Id).Update("active", active).Error
	if err != nil {
		return nil, err
	}
	user.Active = active
	return user, nil
}

// SetProfilePhoto stores the new photo path on the principal's own record
// and returns the previous path so the caller can remove the old file.
func (s *UserService) SetProfilePhoto(p policy.Principal, path string, meta *RequestMeta) (string, error) {
	user, err := s.GetById(p.Id)
	if err != nil {
		return "", err
	}

	previous := user.ProfilePhoto
	err = s.DB.Model(&model.User{}).Where("id = ?", user.Id).Update("profile_photo", path).Error
	if err != nil {
		return "", err
	}

	s.activity.Record(p.Id, ActionUpdatedProfilePhoto, user.Slug, map[string]any{"profile_photo": "updated"}, meta)
	return previous, nil
}

// ClearProfilePhoto removes the photo reference from the principal's own
// record and returns the removed path.
func (s *UserService) ClearProfilePhoto(p policy.Principal, meta *RequestMeta) (string, error) {
	user, err := s.GetById(p.Id)
	if err != nil {
		return "", err
	}
	if user.ProfilePhoto == "" {
		return "", common.ErrNotFound
	}

	previous := user.ProfilePhoto
	err = s.DB.Model(&model.User{}).Where("id = ?", user.Id).Update("profile_photo", "").Error
	if err != nil {
		return "", err
	}

	s.activity.Record(p.Id, ActionDeletedProfilePhoto, user.Slug, map[string]any{"profile_photo": "deleted"}, meta)
	return previous, nil
}
